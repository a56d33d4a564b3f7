package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"invoice-dashboard/internal/models"
)

// Field is an ordered list of column aliases for one logical value.
// The first alias holding a non-blank value wins.
type Field []string

// Column aliases, one list per logical field
var (
	FieldModifiedBy       = Field{"Modificado por"}
	FieldModifiedAt       = Field{"Data de modificação"}
	FieldStatusCode       = Field{"Código status"}
	FieldShift            = Field{"Turno"}
	FieldDayType          = Field{"Tipo Semana"}
	FieldCorrectionDate   = Field{"Data"}
	FieldTaxID            = Field{"CNPJ"}
	FieldPlant            = Field{"Planta", "planta", "Plant", "PLANTA"}
	FieldCorrectionReason = Field{"Texto/ Motivo", "Texto/Motivo", "Motivo", "motivo"}
	FieldPlantReason      = Field{"Motivo Padronizado", "motivo", "Motivo"}
	FieldRecipientTaxID   = Field{"CNPJ Destinatário", "CNPJ do Destinatário", "CNPJ", "Destinatário", "H"}

	// FieldRejectionReasons are tried in order; each is a separate candidate
	// rather than an alias, so "N/A" in one moves on to the next.
	FieldRejectionReasons = []string{
		"Motivo para estorno/não utilização",
		"Motivo para estorno/não utilização__1",
		"Motivo para estorno/não utilização__2",
		"Motivo para estorno/não utilização__3",
		"Motivo para estorno/não utilização__4",
	}
)

// Resolve returns the first non-blank value among the field's aliases
func (f Field) Resolve(row models.RawRow) string {
	for _, col := range f {
		if v := row.Get(col); v != "" {
			return v
		}
	}
	return ""
}

// Raw returns the untrimmed value of the first alias with a non-blank value
func (f Field) Raw(row models.RawRow) string {
	for _, col := range f {
		if row.Get(col) != "" {
			return row[col]
		}
	}
	return ""
}

// Resolver adapts the field to a key extractor
func (f Field) Resolver() KeyFunc {
	return f.Resolve
}

// KeyFunc extracts a grouping key from a row; "" excludes the row
type KeyFunc func(models.RawRow) string

// firstReason returns the first rejection reason that is neither blank nor "N/A"
func firstReason(row models.RawRow) string {
	for _, col := range FieldRejectionReasons {
		v := row.Get(col)
		if v != "" && v != "N/A" {
			return row[col]
		}
	}
	return ""
}

// Shifts are the fixed shift codes, in display order
var Shifts = []string{"T1", "T2", "T3"}

// DayType classifies the day an event happened on
type DayType string

const (
	DayWeek     DayType = "Semana"
	DaySaturday DayType = "Saturday"
	DaySunday   DayType = "Sunday"
)

// DayTypes are the day types in display order
var DayTypes = []DayType{DayWeek, DaySaturday, DaySunday}

var dayTypeCodes = map[string]DayType{
	"week":     DayWeek,
	"semana":   DayWeek,
	"saturday": DaySaturday,
	"sabado":   DaySaturday,
	"sunday":   DaySunday,
	"domingo":  DaySunday,
}

// ParseDayType accepts English or Portuguese day-type codes in any case,
// with or without accents.
func ParseDayType(raw string) (DayType, bool) {
	d, ok := dayTypeCodes[fold(raw)]
	return d, ok
}

// fold lowercases s and strips diacritics
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToLower(out)
}

// rejectionShift returns the shift code when it is exactly T1, T2 or T3
func rejectionShift(row models.RawRow) (string, bool) {
	shift := FieldShift.Raw(row)
	for _, s := range Shifts {
		if shift == s {
			return s, true
		}
	}
	return "", false
}

// correctionShift matches the shift code case-insensitively
func correctionShift(row models.RawRow) (string, bool) {
	shift := strings.ToUpper(FieldShift.Resolve(row))
	for _, s := range Shifts {
		if shift == s {
			return s, true
		}
	}
	return "", false
}
