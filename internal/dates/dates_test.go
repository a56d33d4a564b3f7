package dates

import (
	"sort"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"iso date", "2024-03-15", "2024-03-15", true},
		{"iso datetime", "2024-03-15 08:30:00", "2024-03-15", true},
		{"rfc3339", "2024-03-15T08:30:00Z", "2024-03-15", true},
		{"us slash", "03/15/2024", "2024-03-15", true},
		{"excel short", "3/15/24 14:05", "2024-03-15", true},
		{"day first fallback", "25/12/2023", "2023-12-25", true},
		{"excel serial", "45366", "2024-03-15", true},
		{"padded", "  2024-01-02  ", "2024-01-02", true},
		{"empty", "", "", false},
		{"garbage", "not a date", "", false},
		{"impossible", "2024-13-45", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.raw)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestToComparableNumber(t *testing.T) {
	if _, ok := ToComparableNumber(nil); ok {
		t.Error("nil date should not convert")
	}

	d := time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC)
	got, ok := ToComparableNumber(&d)
	if !ok || got != 20240305 {
		t.Errorf("ToComparableNumber() = %d, %v; want 20240305, true", got, ok)
	}
}

func TestBucketKey(t *testing.T) {
	d := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if got := BucketKey(d); got != "02-2024" {
		t.Errorf("BucketKey() = %q, want 02-2024", got)
	}
}

func TestBucketKeyOf(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"3-2024", "03-2024", true},
		{"11-2023", "11-2023", true},
		{"2024-03-15", "03-2024", true},
		{"13-2024", "", false},
		{"", "", false},
		{"março", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := BucketKeyOf(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("BucketKeyOf(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCompareBucketKeysSortsChronologically(t *testing.T) {
	keys := []string{"01-2025", "12-2024", "02-2024", "10-2024"}
	sort.Slice(keys, func(i, j int) bool { return CompareBucketKeys(keys[i], keys[j]) < 0 })

	want := []string{"02-2024", "10-2024", "12-2024", "01-2025"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("sorted keys = %v, want %v", keys, want)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	d := time.Date(2024, time.February, 10, 15, 0, 0, 0, time.UTC)

	if got := MonthStart(d); !got.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("MonthStart() = %s", got)
	}
	if got := MonthEnd(d); !got.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("MonthEnd() = %s", got)
	}
}
