package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"invoice-dashboard/internal/classifier"
	"invoice-dashboard/internal/dates"
	"invoice-dashboard/internal/models"
)

// RejectionReason returns the label a rejection row is counted under. A
// status code known to the SEFAZ map wins over the free-text reasons.
// The second result is false when the row has no reason at all.
func RejectionReason(row models.RawRow, sefaz models.SefazErrorMap) (string, bool) {
	if code := FieldStatusCode.Resolve(row); code != "" {
		if desc, ok := sefaz.Lookup(code); ok {
			return "Rejeição: " + classifier.StripRejectionLabel(desc), true
		}
	}
	if text := firstReason(row); text != "" {
		return classifier.Standardize(text), true
	}
	return "", false
}

// RankRejectionReasons counts every reason label, ranked, without a cap
func RankRejectionReasons(rows []models.RawRow, sefaz models.SefazErrorMap) []models.AnalysisEntry {
	c := newCounter()
	for _, row := range rows {
		if label, ok := RejectionReason(row, sefaz); ok {
			c.add(label)
		}
	}
	return c.ranked()
}

// TopReasonsFromCodes returns the most frequent rejection reasons
func (e *Engine) TopReasonsFromCodes(rows []models.RawRow, sefaz models.SefazErrorMap) []models.AnalysisEntry {
	return Top(RankRejectionReasons(rows, sefaz), e.config.TopReasons)
}

// ActorClassSplit counts rows per actor class. The three classes are always
// present, in bot, war room, other order.
func (e *Engine) ActorClassSplit(rows []models.RawRow) []models.AnalysisEntry {
	counts := map[string]int{}
	for _, row := range rows {
		counts[e.ActorClass(FieldModifiedBy.Resolve(row))]++
	}
	return []models.AnalysisEntry{
		{Label: ActorBot, Count: counts[ActorBot]},
		{Label: ActorWarRoom, Count: counts[ActorWarRoom]},
		{Label: ActorOther, Count: counts[ActorOther]},
	}
}

// AutomationRate returns the bot share of rows as a percentage
func (e *Engine) AutomationRate(rows []models.RawRow) decimal.Decimal {
	bots := 0
	for _, row := range rows {
		if e.IsBot(FieldModifiedBy.Resolve(row)) {
			bots++
		}
	}
	return models.Share(bots, len(rows))
}

// RejectionBucket returns the MM-YYYY bucket of a rejection's modification date
func RejectionBucket(row models.RawRow) (string, bool) {
	t, ok := dates.Parse(FieldModifiedAt.Resolve(row))
	if !ok {
		return "", false
	}
	return dates.BucketKey(t), true
}

// MonthlyVolume groups rows by month, splitting each month into bot and
// human counts. Months are returned in chronological order.
func (e *Engine) MonthlyVolume(rows []models.RawRow) []models.MonthBucket {
	buckets := make(map[string]*models.MonthBucket)
	for _, row := range rows {
		key, ok := RejectionBucket(row)
		if !ok {
			continue
		}
		b, exists := buckets[key]
		if !exists {
			b = &models.MonthBucket{Key: key}
			buckets[key] = b
		}
		b.Total++
		if e.IsBot(FieldModifiedBy.Resolve(row)) {
			b.Bot++
		} else {
			b.Human++
		}
	}

	out := make([]models.MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return dates.CompareBucketKeys(out[i].Key, out[j].Key) < 0
	})
	return out
}

// ShiftDistribution counts rows per shift; T1, T2 and T3 are always present
func ShiftDistribution(rows []models.RawRow) []models.AnalysisEntry {
	counts := map[string]int{}
	for _, row := range rows {
		if shift, ok := rejectionShift(row); ok {
			counts[shift]++
		}
	}
	out := make([]models.AnalysisEntry, len(Shifts))
	for i, s := range Shifts {
		out[i] = models.AnalysisEntry{Label: s, Count: counts[s]}
	}
	return out
}

type shiftFunc func(models.RawRow) (string, bool)

func shiftByDayType(rows []models.RawRow, shiftOf shiftFunc) []models.ShiftDayTypeCount {
	out := make([]models.ShiftDayTypeCount, len(Shifts))
	index := make(map[string]int, len(Shifts))
	for i, s := range Shifts {
		out[i] = models.ShiftDayTypeCount{Shift: s}
		index[s] = i
	}

	for _, row := range rows {
		shift, ok := shiftOf(row)
		if !ok {
			continue
		}
		day, ok := ParseDayType(FieldDayType.Resolve(row))
		if !ok {
			continue
		}
		c := &out[index[shift]]
		switch day {
		case DayWeek:
			c.Week++
		case DaySaturday:
			c.Saturday++
		case DaySunday:
			c.Sunday++
		}
	}
	return out
}

// ShiftByDayType breaks each shift down by day type. Shift codes must match
// exactly; all three shifts are always present.
func ShiftByDayType(rows []models.RawRow) []models.ShiftDayTypeCount {
	return shiftByDayType(rows, rejectionShift)
}

// MonthReasons returns the top reasons for one month
func (e *Engine) MonthReasons(rows []models.RawRow, sefaz models.SefazErrorMap, month string) []models.AnalysisEntry {
	return Top(RankRejectionReasons(RejectionsInMonth(rows, month), sefaz), e.config.DrilldownTop)
}

// ShiftReasons returns the top reasons recorded on one shift
func (e *Engine) ShiftReasons(rows []models.RawRow, sefaz models.SefazErrorMap, shift string) []models.AnalysisEntry {
	return Top(RankRejectionReasons(RejectionsOnShift(rows, shift), sefaz), e.config.DrilldownTop)
}

// ShiftDayTypeReasons returns the top reasons for one shift on one day type
func (e *Engine) ShiftDayTypeReasons(rows []models.RawRow, sefaz models.SefazErrorMap, shift string, day DayType) []models.AnalysisEntry {
	var subset []models.RawRow
	for _, row := range rows {
		s, ok := rejectionShift(row)
		if !ok || s != shift {
			continue
		}
		if d, ok := ParseDayType(FieldDayType.Resolve(row)); ok && d == day {
			subset = append(subset, row)
		}
	}
	return Top(RankRejectionReasons(subset, sefaz), e.config.DrilldownTop)
}

// RejectionsInMonth keeps the rows whose modification date falls in month
func RejectionsInMonth(rows []models.RawRow, month string) []models.RawRow {
	return filterRows(rows, func(row models.RawRow) bool {
		key, ok := RejectionBucket(row)
		return ok && key == month
	})
}

// RejectionsOnShift keeps the rows recorded on shift
func RejectionsOnShift(rows []models.RawRow, shift string) []models.RawRow {
	return filterRows(rows, func(row models.RawRow) bool {
		s, ok := rejectionShift(row)
		return ok && s == shift
	})
}

func filterRows(rows []models.RawRow, keep func(models.RawRow) bool) []models.RawRow {
	out := make([]models.RawRow, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
