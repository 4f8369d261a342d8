package types

// CallTime classifies when an earnings call happened relative to the
// trading session. Unknown is treated like BMO everywhere downstream.
type CallTime string

const (
	CallTimeBMO     CallTime = "BMO"
	CallTimeAMC     CallTime = "AMC"
	CallTimeUnknown CallTime = "unknown"
)

// EarningsRaw is one historical earnings event as reported by the data
// source. EPS/revenue figures are nil when the source has no estimate or
// actual for that quarter.
type EarningsRaw struct {
	Date             string   `json:"date"` // YYYY-MM-DD
	Symbol           string   `json:"symbol"`
	EPS              *float64 `json:"eps,omitempty"`
	EPSEstimated     *float64 `json:"eps_estimated,omitempty"`
	Revenue          *float64 `json:"revenue,omitempty"`
	RevenueEstimated *float64 `json:"revenue_estimated,omitempty"`
}

// PriceBar is one trading day. A price history is a slice of PriceBar
// sorted ascending by date with no duplicates.
type PriceBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume,omitempty"`
}

// NumbersView scores EPS/revenue performance vs expectations on a
// -2 (significant miss) to +2 (significant beat) scale.
type NumbersView struct {
	EPSStrength            int `json:"eps_strength"`
	RevenueStrength        int `json:"revenue_strength"`
	OverallNumbersStrength int `json:"overall_numbers_strength"`
}

// ToneView scores transcript sentiment on a -2 (very negative) to
// +2 (very optimistic) scale, split by transcript section.
type ToneView struct {
	OverallTone  int `json:"overall_tone"`
	PreparedTone int `json:"prepared_tone"`
	QATone       int `json:"qa_tone"`
}

// NarrativeView captures how management frames negatives and positives as
// temporary vs structural. Ratios are in [0,1].
type NarrativeView struct {
	NegTemporaryRatio    float64  `json:"neg_temporary_ratio"`
	PosTemporaryRatio    float64  `json:"pos_temporary_ratio"`
	KeyTemporaryFactors  []string `json:"key_temporary_factors,omitempty"`
	KeyStructuralFactors []string `json:"key_structural_factors,omitempty"`
}

// SkepticismView captures analyst questioning behavior in the Q&A.
// Ratios are in [0,1].
type SkepticismView struct {
	SkepticalQuestionRatio float64 `json:"skeptical_question_ratio"`
	FollowupRatio          float64 `json:"followup_ratio"`
	TopicConcentration     float64 `json:"topic_concentration"`
}

// SemanticFeatures is the full feature record extracted from one earnings
// call transcript. Immutable once produced.
type SemanticFeatures struct {
	Numbers            NumbersView    `json:"numbers"`
	Tone               ToneView       `json:"tone"`
	Narrative          NarrativeView  `json:"narrative"`
	Skepticism         SkepticismView `json:"skepticism"`
	RiskFocusScore     int            `json:"risk_focus_score"` // 0-100
	OneSentenceSummary string         `json:"one_sentence_summary"`
}

// TranscriptDate maps one earnings date onto the fiscal year and quarter
// the transcript is filed under. Fiscal quarters diverge from calendar
// quarters for off-cycle fiscal years.
type TranscriptDate struct {
	Date    string `json:"date"`
	Year    int    `json:"fiscalYear"`
	Quarter int    `json:"quarter"`
}

// ExtractRequest bundles everything the extractor needs to analyze one
// earnings call: headline numbers, the market reaction, and the
// transcript itself.
type ExtractRequest struct {
	Symbol           string
	EarningDate      string
	Year             int
	Quarter          int
	EPS              *float64
	EPSEstimated     *float64
	Revenue          *float64
	RevenueEstimated *float64
	Day0Return       float64
	Transcript       string
}

// SingleSignal is one scored signal. Score is 0 (strong bearish) to
// 10 (strong bullish) with 5.0 neutral.
type SingleSignal struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// AllSignals holds the five individual signals plus the aggregate.
// All six are always populated; calculators emit neutral signals instead
// of omitting output when data is insufficient.
type AllSignals struct {
	ToneNumbers       SingleSignal `json:"tone_numbers"`
	PreparedVsQA      SingleSignal `json:"prepared_vs_qa"`
	RegimeShift       SingleSignal `json:"regime_shift"`
	TempVsStruct      SingleSignal `json:"temp_vs_struct"`
	AnalystSkepticism SingleSignal `json:"analyst_skepticism"`
	FinalSignal       SingleSignal `json:"final_signal"`
}

// Individual returns the five sub-signals in their canonical order.
func (a *AllSignals) Individual() []SingleSignal {
	return []SingleSignal{
		a.ToneNumbers,
		a.PreparedVsQA,
		a.RegimeShift,
		a.TempVsStruct,
		a.AnalystSkepticism,
	}
}

// ForwardReturn is the realized return from T0 to T0+Horizon trading days.
// Hit is nil when the governing signal was neutral (no trade taken).
type ForwardReturn struct {
	Horizon   int     `json:"horizon"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	ReturnPct float64 `json:"return_pct"`
	Hit       *bool   `json:"hit,omitempty"`
}

// HitRateStat aggregates trade outcomes for one horizon. HitRate is nil
// when no trades were taken at that horizon.
type HitRateStat struct {
	NumTrades int      `json:"num_trades"`
	NumHits   int      `json:"num_hits"`
	HitRate   *float64 `json:"hit_rate,omitempty"`
}

// EventStatus records how far analysis of one event got.
type EventStatus struct {
	Success             bool   `json:"success"`
	TranscriptAvailable bool   `json:"transcript_available"`
	ExtractionSucceeded bool   `json:"extraction_succeeded"`
	ErrorMessage        string `json:"error_message,omitempty"`
}

// EventResult is the complete analysis of one earnings event.
type EventResult struct {
	EarningDate      string            `json:"earning_date"`
	Year             int               `json:"year"`
	Quarter          int               `json:"quarter"`
	EPS              *float64          `json:"eps,omitempty"`
	EPSEstimate      *float64          `json:"eps_estimate,omitempty"`
	Revenue          *float64          `json:"revenue,omitempty"`
	RevenueEstimate  *float64          `json:"revenue_estimate,omitempty"`
	Day0Return       *float64          `json:"day0_return,omitempty"`
	CallTime         CallTime          `json:"call_time"`
	Signals          *AllSignals       `json:"signals,omitempty"`
	SemanticFeatures *SemanticFeatures `json:"semantic_features,omitempty"`
	ForwardReturns   []ForwardReturn   `json:"forward_returns"`
	Status           EventStatus       `json:"status"`
}

// TickerResult is the full per-ticker report: ordered event results plus
// the per-horizon hit-rate summary. This is the sole output contract the
// presentation layer may rely on.
type TickerResult struct {
	Ticker            string                 `json:"ticker"`
	Events            []EventResult          `json:"events"`
	HitRates          map[string]HitRateStat `json:"hit_rates"` // key: "5", "10", ...
	TotalEventsFound  int                    `json:"total_events_found"`
	EventsAnalyzed    int                    `json:"events_analyzed"`
	EventsWithSignals int                    `json:"events_with_signals"`
}

// Float64Ptr returns a pointer to v. Convenience for optional fields.
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

// DefaultFeatures returns the documented neutral feature record used when
// no transcript is available or extraction fails.
func DefaultFeatures() SemanticFeatures {
	return SemanticFeatures{
		Numbers: NumbersView{},
		Tone:    ToneView{},
		Narrative: NarrativeView{
			NegTemporaryRatio: 0.5,
			PosTemporaryRatio: 0.5,
		},
		Skepticism: SkepticismView{
			SkepticalQuestionRatio: 0.3,
			FollowupRatio:          0.2,
			TopicConcentration:     0.3,
		},
		RiskFocusScore:     40,
		OneSentenceSummary: "Transcript not available for analysis.",
	}
}
