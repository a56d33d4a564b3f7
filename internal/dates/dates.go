// Package dates parses the heterogeneous date cells found in the exports and
// derives MM-YYYY month bucket keys from them.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// layouts are tried in order; the first successful parse wins.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/06 15:04",
	"1/2/06",
	"01-02-06",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.2006",
}

var (
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})-(\d{4})$`)
	serialPattern    = regexp.MustCompile(`^\d{4,6}(\.\d+)?$`)
)

// Parse attempts to read raw as a calendar date. It never fails loudly:
// unparseable input yields ok == false.
func Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Unformatted cells come through as Excel serial day numbers.
	if serialPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(f, false); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// ToComparableNumber returns t as a YYYYMMDD integer
func ToComparableNumber(t *time.Time) (int, bool) {
	if t == nil {
		return 0, false
	}
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d, true
}

// BucketKey returns the zero-padded MM-YYYY key for t
func BucketKey(t time.Time) string {
	return fmt.Sprintf("%02d-%04d", int(t.Month()), t.Year())
}

// BucketKeyFromMonthYear normalises a "M-YYYY" or "MM-YYYY" cell to MM-YYYY.
func BucketKeyFromMonthYear(raw string) (string, bool) {
	m := monthYearPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[1])
	if month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%02d-%s", month, m[2]), true
}

// BucketKeyOf derives a bucket key from a cell holding either a month-year
// pair or a full date.
func BucketKeyOf(raw string) (string, bool) {
	if key, ok := BucketKeyFromMonthYear(raw); ok {
		return key, true
	}
	if t, ok := Parse(raw); ok {
		return BucketKey(t), true
	}
	return "", false
}

// ParseBucketKey returns the first day of the month named by an MM-YYYY key
func ParseBucketKey(key string) (time.Time, bool) {
	t, err := time.Parse("01-2006", key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CompareBucketKeys orders two MM-YYYY keys chronologically.
// Malformed keys sort before well-formed ones.
func CompareBucketKeys(a, b string) int {
	ta, okA := ParseBucketKey(a)
	tb, okB := ParseBucketKey(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	case ta.Before(tb):
		return -1
	case ta.After(tb):
		return 1
	default:
		return 0
	}
}

// MonthStart returns midnight on the first day of t's month
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns midnight on the last day of t's month
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}
