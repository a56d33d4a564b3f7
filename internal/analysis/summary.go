package analysis

import (
	"github.com/shopspring/decimal"

	"invoice-dashboard/internal/models"
)

// RejectionSummary is the full set of rejection views for one filter
type RejectionSummary struct {
	Total             int                        `json:"total"`
	AutomationRate    decimal.Decimal            `json:"automation_rate"`
	TopReasons        []models.AnalysisEntry     `json:"top_reasons"`
	ActorSplit        []models.AnalysisEntry     `json:"actor_split"`
	MonthlyVolume     []models.MonthBucket       `json:"monthly_volume"`
	ShiftDistribution []models.AnalysisEntry     `json:"shift_distribution"`
	ShiftByDayType    []models.ShiftDayTypeCount `json:"shift_by_day_type"`
}

// CorrectionSummary is the full set of correction views for one filter
type CorrectionSummary struct {
	Total           int                        `json:"total"`
	Plants          int                        `json:"plants"`
	ByPlant         []models.AnalysisEntry     `json:"by_plant"`
	Reasons         []models.AnalysisEntry     `json:"reasons"`
	MonthlyVolume   []models.KeyTotal          `json:"monthly_volume"`
	ShiftByWeekType []models.ShiftDayTypeCount `json:"shift_by_week_type"`
	TopRecipients   []models.KeyTotal          `json:"top_recipients"`
	ReasonsByPlant  []models.PlantReasons      `json:"reasons_by_plant"`
	Offenders       []Offender                 `json:"offenders"`
	Stats           CorrectionStats            `json:"stats"`
}

// Summary holds both summaries computed over the same date range
type Summary struct {
	Range       DateRange          `json:"range"`
	Rejections  *RejectionSummary  `json:"rejections,omitempty"`
	Corrections *CorrectionSummary `json:"corrections,omitempty"`
}

// SummarizeRejections computes every rejection view over rows
func (e *Engine) SummarizeRejections(rows []models.RawRow, sefaz models.SefazErrorMap) *RejectionSummary {
	split := e.ActorClassSplit(rows)
	return &RejectionSummary{
		Total:             len(rows),
		AutomationRate:    AutomationRateOf(split),
		TopReasons:        e.TopReasonsFromCodes(rows, sefaz),
		ActorSplit:        split,
		MonthlyVolume:     e.MonthlyVolume(rows),
		ShiftDistribution: ShiftDistribution(rows),
		ShiftByDayType:    ShiftByDayType(rows),
	}
}

// SummarizeCorrections computes every correction view over rows
func (e *Engine) SummarizeCorrections(rows []models.RawRow) *CorrectionSummary {
	byPlant := CorrectionsByPlant(rows)
	return &CorrectionSummary{
		Total:           len(rows),
		Plants:          len(byPlant),
		ByPlant:         byPlant,
		Reasons:         e.CorrectionReasons(rows),
		MonthlyVolume:   CorrectionsMonthlyVolume(rows),
		ShiftByWeekType: CorrectionsByShiftAndWeekType(rows),
		TopRecipients:   e.TopRecipients(rows),
		ReasonsByPlant:  e.TopReasonsByPlant(rows),
		Offenders:       PlantOffenders(rows),
		Stats:           Stats(rows),
	}
}

// Summarize filters the dataset to r and computes both summaries. A sheet
// with no rows leaves its summary nil.
func (e *Engine) Summarize(ds *models.Dataset, r DateRange) *Summary {
	s := &Summary{Range: r}
	if ds == nil {
		return s
	}
	if len(ds.Rejections) > 0 {
		s.Rejections = e.SummarizeRejections(FilterRejections(ds.Rejections, r), ds.SefazErrors)
	}
	if len(ds.Corrections) > 0 {
		s.Corrections = e.SummarizeCorrections(FilterCorrections(ds.Corrections, r))
	}
	return s
}

// AutomationRateOf returns the bot share of an actor split's total
func AutomationRateOf(split []models.AnalysisEntry) decimal.Decimal {
	bots, total := 0, 0
	for _, e := range split {
		total += e.Count
		if e.Label == ActorBot {
			bots = e.Count
		}
	}
	return models.Share(bots, total)
}
