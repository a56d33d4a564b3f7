package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawRow maps a column label to the cell's formatted string value.
// Missing columns read as "".
type RawRow map[string]string

// Get returns the trimmed value stored under column
func (r RawRow) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Has reports whether column holds a non-blank value
func (r RawRow) Has(column string) bool {
	return r.Get(column) != ""
}

// SefazErrorMap maps a trimmed status code to its trimmed description
type SefazErrorMap map[string]string

// NewSefazErrorMap builds the lookup table from two-column rows (code, description).
// Rows with an empty code are skipped; later rows overwrite earlier ones.
func NewSefazErrorMap(pairs [][]string) SefazErrorMap {
	m := make(SefazErrorMap, len(pairs))
	for _, pair := range pairs {
		if len(pair) == 0 {
			continue
		}
		code := strings.TrimSpace(pair[0])
		if code == "" {
			continue
		}
		var desc string
		if len(pair) > 1 {
			desc = strings.TrimSpace(pair[1])
		}
		m[code] = desc
	}
	return m
}

// Lookup returns the description for a status code, trimming it first
func (m SefazErrorMap) Lookup(code string) (string, bool) {
	if m == nil {
		return "", false
	}
	desc, ok := m[strings.TrimSpace(code)]
	return desc, ok
}

// AnalysisEntry is a labelled count, the output shape of every aggregation
type AnalysisEntry struct {
	Label string `json:"name"`
	Count int    `json:"count"`
}

// String returns a string representation of the entry
func (e AnalysisEntry) String() string {
	return fmt.Sprintf("%s: %d", e.Label, e.Count)
}

// MonthBucket holds the volume of one MM-YYYY month split by actor class
type MonthBucket struct {
	Key   string `json:"month"`
	Total int    `json:"total"`
	Bot   int    `json:"bot"`
	Human int    `json:"human"`
}

// AutomationRate returns the bot share of the bucket as a percentage
func (b MonthBucket) AutomationRate() decimal.Decimal {
	return Share(b.Bot, b.Total)
}

// ShiftDayTypeCount is one shift's breakdown by day type
type ShiftDayTypeCount struct {
	Shift    string `json:"shift"`
	Week     int    `json:"week"`
	Saturday int    `json:"saturday"`
	Sunday   int    `json:"sunday"`
}

// Total returns the sum over all day types
func (s ShiftDayTypeCount) Total() int {
	return s.Week + s.Saturday + s.Sunday
}

// OffenderSummary counts correction events for a recipient tax id
type OffenderSummary struct {
	TaxID string `json:"cnpj"`
	Count int    `json:"count"`
}

// KeyTotal is the result shape of a generic top-N-by-key ranking
type KeyTotal struct {
	Key   string `json:"key"`
	Total int    `json:"total"`
}

// PlantReasons holds the top reasons recorded for one plant
type PlantReasons struct {
	Plant   string          `json:"plant"`
	Reasons []AnalysisEntry `json:"reasons"`
}

// Dataset is the immutable result of loading both workbooks
type Dataset struct {
	Rejections  []RawRow      `json:"-"`
	Corrections []RawRow      `json:"-"`
	SefazErrors SefazErrorMap `json:"-"`
}

// IsEmpty reports whether neither sheet produced rows
func (d *Dataset) IsEmpty() bool {
	return d == nil || (len(d.Rejections) == 0 && len(d.Corrections) == 0)
}

var hundred = decimal.NewFromInt(100)

// Share returns part/total as a percentage rounded to two places.
// A zero total yields zero.
func Share(part, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
