package analysis

import (
	"time"

	"invoice-dashboard/internal/dates"
	"invoice-dashboard/internal/models"
)

// DateRange bounds a view by month. Either end may be zero to leave it open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DefaultRange covers months whole months ending with the month of now:
// from the first day of the earliest month through the last day of now's.
func DefaultRange(now time.Time, months int) DateRange {
	if months < 1 {
		months = 1
	}
	now = now.UTC()
	return DateRange{
		Start: dates.MonthStart(now).AddDate(0, -(months - 1), 0),
		End:   dates.MonthEnd(now),
	}
}

// IsOpen reports whether neither bound is set
func (r DateRange) IsOpen() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// ContainsBucket compares the first day of the key's month against the
// bounds, both inclusive. Malformed keys are never contained.
func (r DateRange) ContainsBucket(key string) bool {
	first, ok := dates.ParseBucketKey(key)
	if !ok {
		return false
	}
	if !r.Start.IsZero() && first.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && first.After(r.End) {
		return false
	}
	return true
}

func filterByBucket(rows []models.RawRow, r DateRange, bucket func(models.RawRow) (string, bool)) []models.RawRow {
	if r.IsOpen() {
		return rows
	}
	return filterRows(rows, func(row models.RawRow) bool {
		key, ok := bucket(row)
		return ok && r.ContainsBucket(key)
	})
}

// FilterRejections keeps the rejections whose modification month lies in r.
// An open range returns rows unchanged; otherwise undated rows are dropped.
func FilterRejections(rows []models.RawRow, r DateRange) []models.RawRow {
	return filterByBucket(rows, r, RejectionBucket)
}

// FilterCorrections keeps the corrections whose Data month lies in r
func FilterCorrections(rows []models.RawRow, r DateRange) []models.RawRow {
	return filterByBucket(rows, r, CorrectionBucket)
}
