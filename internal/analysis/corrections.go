package analysis

import (
	"sort"

	"invoice-dashboard/internal/classifier"
	"invoice-dashboard/internal/dates"
	"invoice-dashboard/internal/models"
	"invoice-dashboard/internal/taxid"
)

// CorrectionsByPlant counts corrections per plant, ranked, without a cap.
// Rows with no plant are left out.
func CorrectionsByPlant(rows []models.RawRow) []models.AnalysisEntry {
	c := newCounter()
	for _, row := range rows {
		if plant := FieldPlant.Resolve(row); plant != "" {
			c.add(plant)
		}
	}
	return c.ranked()
}

// RankCorrectionReasons counts classified correction reasons without a cap.
// A bare "Correção:" label cleans to nothing and is not counted.
func RankCorrectionReasons(rows []models.RawRow) []models.AnalysisEntry {
	c := newCounter()
	for _, row := range rows {
		text := FieldCorrectionReason.Resolve(row)
		if text == "" {
			continue
		}
		if label := classifier.ClassifyCorrectionReason(text); label != "" {
			c.add(label)
		}
	}
	return c.ranked()
}

// CorrectionReasons returns the most frequent correction categories
func (e *Engine) CorrectionReasons(rows []models.RawRow) []models.AnalysisEntry {
	return Top(RankCorrectionReasons(rows), e.config.TopReasons)
}

// TopOffendersByPlant ranks the valid tax ids with corrections at plant.
// Ids are grouped by their digits, so formatted and bare spellings merge.
func TopOffendersByPlant(rows []models.RawRow, plant string) []models.OffenderSummary {
	c := newCounter()
	for _, row := range rows {
		if FieldPlant.Resolve(row) != plant {
			continue
		}
		id := FieldTaxID.Resolve(row)
		if !taxid.IsValid(id) {
			continue
		}
		c.add(taxid.Digits(id))
	}

	ranked := c.ranked()
	out := make([]models.OffenderSummary, len(ranked))
	for i, e := range ranked {
		out[i] = models.OffenderSummary{TaxID: e.Label, Count: e.Count}
	}
	return out
}

// TopNByKey groups rows by the key extracted from each, ranks the groups and
// keeps the first n. Rows with an empty key are skipped.
func TopNByKey(rows []models.RawRow, key KeyFunc, n int) []models.KeyTotal {
	c := newCounter()
	for _, row := range rows {
		if k := key(row); k != "" {
			c.add(k)
		}
	}
	return Top(c.rankedKeys(), n)
}

// TopRecipients returns the recipient tax ids with the most corrections
func (e *Engine) TopRecipients(rows []models.RawRow) []models.KeyTotal {
	return TopNByKey(rows, FieldRecipientTaxID.Resolver(), e.config.TopRecipients)
}

// CorrectionBucket returns the MM-YYYY bucket of a correction's Data cell
func CorrectionBucket(row models.RawRow) (string, bool) {
	return dates.BucketKeyOf(FieldCorrectionDate.Resolve(row))
}

// CorrectionsMonthlyVolume counts corrections per month, chronologically
func CorrectionsMonthlyVolume(rows []models.RawRow) []models.KeyTotal {
	c := newCounter()
	for _, row := range rows {
		if key, ok := CorrectionBucket(row); ok {
			c.add(key)
		}
	}
	out := c.rankedKeys()
	sort.SliceStable(out, func(i, j int) bool {
		return dates.CompareBucketKeys(out[i].Key, out[j].Key) < 0
	})
	return out
}

// CorrectionsByShiftAndWeekType is ShiftByDayType for corrections, where
// the shift code is matched case-insensitively.
func CorrectionsByShiftAndWeekType(rows []models.RawRow) []models.ShiftDayTypeCount {
	return shiftByDayType(rows, correctionShift)
}

// TopReasonsByPlant ranks the standardised reasons recorded at each plant.
// Plants appear in the order they are first seen.
func (e *Engine) TopReasonsByPlant(rows []models.RawRow) []models.PlantReasons {
	var plants []string
	byPlant := make(map[string]*counter)
	for _, row := range rows {
		plant := FieldPlant.Resolve(row)
		reason := FieldPlantReason.Resolve(row)
		if plant == "" || reason == "" {
			continue
		}
		c, ok := byPlant[plant]
		if !ok {
			c = newCounter()
			byPlant[plant] = c
			plants = append(plants, plant)
		}
		c.add(reason)
	}

	out := make([]models.PlantReasons, len(plants))
	for i, p := range plants {
		out[i] = models.PlantReasons{Plant: p, Reasons: Top(byPlant[p].ranked(), e.config.TopReasons)}
	}
	return out
}

// Offender is the tax id with the most corrections at one plant
type Offender struct {
	Plant   string                 `json:"plant"`
	TaxID   string                 `json:"cnpj"`
	Count   int                    `json:"total"`
	Reasons []models.AnalysisEntry `json:"reasons"`
}

// CorrectionStats summarises offenders across plants
type CorrectionStats struct {
	TotalPlants  int        `json:"total_plants"`
	TotalTaxIDs  int        `json:"total_tax_ids"`
	TopOffenders []Offender `json:"top_offenders"`
}

// Stats counts the plants and distinct tax ids with corrections and picks the
// top offender of every plant. Any non-blank tax id counts here, valid or not;
// TotalTaxIDs sums the distinct ids of each plant.
func Stats(rows []models.RawRow) CorrectionStats {
	type plantIDs struct {
		ids     *counter
		reasons map[string]*counter
	}

	var plants []string
	byPlant := make(map[string]*plantIDs)
	for _, row := range rows {
		plant := FieldPlant.Resolve(row)
		id := taxid.Digits(FieldTaxID.Resolve(row))
		if plant == "" || id == "" {
			continue
		}
		p, ok := byPlant[plant]
		if !ok {
			p = &plantIDs{ids: newCounter(), reasons: make(map[string]*counter)}
			byPlant[plant] = p
			plants = append(plants, plant)
		}
		p.ids.add(id)

		r, ok := p.reasons[id]
		if !ok {
			r = newCounter()
			p.reasons[id] = r
		}
		if label := classifier.ClassifyCorrectionReason(FieldCorrectionReason.Resolve(row)); label != "" {
			r.add(label)
		}
	}

	stats := CorrectionStats{TotalPlants: len(plants), TopOffenders: []Offender{}}
	for _, plant := range plants {
		p := byPlant[plant]
		stats.TotalTaxIDs += p.ids.len()
		top := p.ids.ranked()[0]
		stats.TopOffenders = append(stats.TopOffenders, Offender{
			Plant:   plant,
			TaxID:   top.Label,
			Count:   top.Count,
			Reasons: p.reasons[top.Label].ranked(),
		})
	}
	return stats
}

// PlantOffenders picks the top valid tax id of every plant, in the ranked
// plant order, with the reasons behind its corrections at that plant. Plants
// whose corrections carry no valid id are left out.
func PlantOffenders(rows []models.RawRow) []Offender {
	out := []Offender{}
	for _, plant := range CorrectionsByPlant(rows) {
		ranked := TopOffendersByPlant(rows, plant.Label)
		if len(ranked) == 0 {
			continue
		}
		top := ranked[0]
		out = append(out, Offender{
			Plant:   plant.Label,
			TaxID:   top.TaxID,
			Count:   top.Count,
			Reasons: RankCorrectionReasons(CorrectionsForTaxID(CorrectionsAtPlant(rows, plant.Label), top.TaxID)),
		})
	}
	return out
}

// CorrectionsInMonth keeps the corrections whose bucket is month
func CorrectionsInMonth(rows []models.RawRow, month string) []models.RawRow {
	return filterRows(rows, func(row models.RawRow) bool {
		key, ok := CorrectionBucket(row)
		return ok && key == month
	})
}

// CorrectionsAtPlant keeps the corrections recorded at plant
func CorrectionsAtPlant(rows []models.RawRow, plant string) []models.RawRow {
	return filterRows(rows, func(row models.RawRow) bool {
		return FieldPlant.Resolve(row) == plant
	})
}

// CorrectionsForTaxID keeps the corrections whose tax id has the same digits
// as id
func CorrectionsForTaxID(rows []models.RawRow, id string) []models.RawRow {
	want := taxid.Digits(id)
	return filterRows(rows, func(row models.RawRow) bool {
		return want != "" && taxid.Digits(FieldTaxID.Resolve(row)) == want
	})
}

// CorrectionMonthReasons returns the top correction reasons for one month
func (e *Engine) CorrectionMonthReasons(rows []models.RawRow, month string) []models.AnalysisEntry {
	return Top(RankCorrectionReasons(CorrectionsInMonth(rows, month)), e.config.DrilldownTop)
}

// PlantRecipients returns the top recipients of corrections at plant
func (e *Engine) PlantRecipients(rows []models.RawRow, plant string) []models.KeyTotal {
	return TopNByKey(CorrectionsAtPlant(rows, plant), FieldRecipientTaxID.Resolver(), e.config.DrilldownTop)
}

// MonthRecipients returns the top recipients of corrections in month
func (e *Engine) MonthRecipients(rows []models.RawRow, month string) []models.KeyTotal {
	return TopNByKey(CorrectionsInMonth(rows, month), FieldRecipientTaxID.Resolver(), e.config.DrilldownTop)
}

// TaxIDReasons returns the top correction reasons for one tax id, limited to
// month when it is not empty.
func (e *Engine) TaxIDReasons(rows []models.RawRow, id, month string) []models.AnalysisEntry {
	subset := CorrectionsForTaxID(rows, id)
	if month != "" {
		subset = CorrectionsInMonth(subset, month)
	}
	return Top(RankCorrectionReasons(subset), e.config.DrilldownTop)
}
