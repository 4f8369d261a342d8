package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"earnings-reversal/internal/signals"
	"earnings-reversal/internal/types"
)

type fakeSource struct {
	events      []types.EarningsRaw
	prices      []types.PriceBar
	transcripts map[string]string // key: "year-quarter"
	dates       []types.TranscriptDate
	eventsErr   error
}

func (f *fakeSource) EarningsEvents(_ context.Context, _ string, _ int) ([]types.EarningsRaw, error) {
	return f.events, f.eventsErr
}

func (f *fakeSource) PriceHistory(_ context.Context, _ string) ([]types.PriceBar, error) {
	return f.prices, nil
}

func (f *fakeSource) Transcript(_ context.Context, _ string, year, quarter int) (string, error) {
	return f.transcripts[fmt.Sprintf("%d-%d", year, quarter)], nil
}

func (f *fakeSource) TranscriptDates(_ context.Context, _ string) ([]types.TranscriptDate, error) {
	return f.dates, nil
}

type fakeExtractor struct {
	requests []types.ExtractRequest
	features []types.SemanticFeatures
	err      error
}

func (f *fakeExtractor) Extract(_ context.Context, req types.ExtractRequest) (types.SemanticFeatures, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return types.SemanticFeatures{}, f.err
	}
	i := len(f.requests) - 1
	if i < len(f.features) {
		return f.features[i], nil
	}
	return types.DefaultFeatures(), nil
}

// flatSeries returns n consecutive daily bars all closing at the same
// price, starting 2024-01-01.
func flatSeries(n int, close float64) []types.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.PriceBar, n)
	for i := range bars {
		bars[i] = types.PriceBar{
			Date:  start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:  close,
			High:  close,
			Low:   close,
			Close: close,
		}
	}
	return bars
}

func neutralWithRisk(risk int) types.SemanticFeatures {
	f := types.SemanticFeatures{RiskFocusScore: risk}
	f.OneSentenceSummary = "Quarter in line with expectations."
	return f
}

func TestAnalyzeTickerHappyPath(t *testing.T) {
	prices := flatSeries(40, 100)
	eventDate := prices[10].Date

	src := &fakeSource{
		events: []types.EarningsRaw{{Date: eventDate, Symbol: "ACME"}},
		prices: prices,
		transcripts: map[string]string{
			"2024-1": "Operator: Good morning, welcome to the call.",
		},
		dates: []types.TranscriptDate{{Date: eventDate, Year: 2024, Quarter: 1}},
	}
	ext := &fakeExtractor{features: []types.SemanticFeatures{neutralWithRisk(40)}}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), " acme ", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}
	if res.Ticker != "ACME" {
		t.Errorf("ticker = %q, want ACME", res.Ticker)
	}
	if res.TotalEventsFound != 1 || res.EventsAnalyzed != 1 {
		t.Errorf("counts = found %d analyzed %d", res.TotalEventsFound, res.EventsAnalyzed)
	}

	ev := res.Events[0]
	if ev.CallTime != types.CallTimeBMO {
		t.Errorf("call time = %s, want BMO", ev.CallTime)
	}
	if ev.Day0Return == nil || *ev.Day0Return != 0 {
		t.Errorf("day0 = %v, want 0", ev.Day0Return)
	}
	if ev.Signals == nil || ev.Signals.FinalSignal.Score != signals.BaseScore {
		t.Errorf("final signal = %+v", ev.Signals)
	}
	if !ev.Status.Success || !ev.Status.TranscriptAvailable || !ev.Status.ExtractionSucceeded {
		t.Errorf("status = %+v", ev.Status)
	}
	if len(ev.ForwardReturns) != 1 || ev.ForwardReturns[0].Horizon != 2 {
		t.Errorf("forward returns = %+v", ev.ForwardReturns)
	}
	if ev.ForwardReturns[0].Hit != nil {
		t.Error("neutral signal must not record a hit")
	}

	stat, ok := res.HitRates["2"]
	if !ok {
		t.Fatal("missing hit-rate bucket for horizon 2")
	}
	if stat.NumTrades != 0 || stat.HitRate != nil {
		t.Errorf("hit rate stat = %+v, want zero trades with nil rate", stat)
	}

	if len(ext.requests) != 1 {
		t.Fatalf("extractor called %d times, want 1", len(ext.requests))
	}
	if ext.requests[0].Day0Return != 0 || ext.requests[0].Symbol != "ACME" {
		t.Errorf("extract request = %+v", ext.requests[0])
	}
}

func TestAnalyzeTickerFiscalLookupFallsBackToCalendar(t *testing.T) {
	prices := flatSeries(40, 100)
	eventDate := prices[10].Date // 2024-01-11

	src := &fakeSource{
		events: []types.EarningsRaw{{Date: eventDate, Symbol: "ACME"}},
		prices: prices,
	}
	ext := &fakeExtractor{}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}
	if res.Events[0].Year != 2024 || res.Events[0].Quarter != 1 {
		t.Errorf("fiscal fallback = %d Q%d, want 2024 Q1", res.Events[0].Year, res.Events[0].Quarter)
	}
}

func TestAnalyzeTickerMissingTranscriptDegradesToNeutral(t *testing.T) {
	prices := flatSeries(40, 100)
	src := &fakeSource{
		events: []types.EarningsRaw{{Date: prices[10].Date, Symbol: "ACME"}},
		prices: prices,
	}
	ext := &fakeExtractor{}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}
	ev := res.Events[0]
	if ev.Status.TranscriptAvailable || ev.Status.ExtractionSucceeded {
		t.Errorf("status = %+v, want transcript and extraction unavailable", ev.Status)
	}
	if !ev.Status.Success {
		t.Error("missing transcript must not fail the event")
	}
	if ev.SemanticFeatures == nil || ev.SemanticFeatures.RiskFocusScore != 40 {
		t.Errorf("features = %+v, want neutral defaults", ev.SemanticFeatures)
	}
	if ev.Signals == nil || ev.Signals.FinalSignal.Score != signals.BaseScore {
		t.Errorf("final signal = %+v, want neutral", ev.Signals)
	}
	if len(ext.requests) != 0 {
		t.Errorf("extractor called %d times for missing transcript", len(ext.requests))
	}
}

func TestAnalyzeTickerExtractionFailureDegradesToNeutral(t *testing.T) {
	prices := flatSeries(40, 100)
	src := &fakeSource{
		events:      []types.EarningsRaw{{Date: prices[10].Date, Symbol: "ACME"}},
		prices:      prices,
		transcripts: map[string]string{"2024-1": "Operator: Good morning."},
	}
	ext := &fakeExtractor{err: errors.New("deployment throttled")}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}
	ev := res.Events[0]
	if !ev.Status.TranscriptAvailable || ev.Status.ExtractionSucceeded {
		t.Errorf("status = %+v", ev.Status)
	}
	if !strings.Contains(ev.Status.ErrorMessage, "deployment throttled") {
		t.Errorf("error message = %q", ev.Status.ErrorMessage)
	}
	if ev.SemanticFeatures == nil || ev.SemanticFeatures.RiskFocusScore != 40 {
		t.Errorf("features = %+v, want neutral defaults", ev.SemanticFeatures)
	}
}

func TestAnalyzeTickerSkipsUnresolvableWindow(t *testing.T) {
	prices := flatSeries(10, 100)
	beyond := "2025-06-01"
	src := &fakeSource{
		events: []types.EarningsRaw{
			{Date: prices[5].Date, Symbol: "ACME"},
			{Date: beyond, Symbol: "ACME"},
		},
		prices: prices,
	}
	ext := &fakeExtractor{}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}
	if res.TotalEventsFound != 2 || res.EventsAnalyzed != 1 {
		t.Errorf("counts = found %d analyzed %d, want 2/1", res.TotalEventsFound, res.EventsAnalyzed)
	}

	// Events are reported most recent first
	skipped := res.Events[0]
	if skipped.EarningDate != beyond {
		t.Fatalf("events not sorted descending: %s first", skipped.EarningDate)
	}
	if skipped.Status.Success || skipped.Signals != nil || skipped.Day0Return != nil {
		t.Errorf("skipped event = %+v", skipped)
	}
	if skipped.Status.ErrorMessage == "" {
		t.Error("skipped event missing error message")
	}
}

func TestAnalyzeTickerAllEventsUnresolvable(t *testing.T) {
	src := &fakeSource{
		events: []types.EarningsRaw{{Date: "2025-06-01", Symbol: "ACME"}},
		prices: flatSeries(5, 100),
	}
	if _, err := New(src, &fakeExtractor{}, nil, 0).AnalyzeTicker(context.Background(), "ACME", 8); err == nil {
		t.Error("expected error when no event could be analyzed")
	}
}

func TestAnalyzeTickerNoEarnings(t *testing.T) {
	src := &fakeSource{prices: flatSeries(5, 100)}
	if _, err := New(src, &fakeExtractor{}, nil, 0).AnalyzeTicker(context.Background(), "ACME", 8); err == nil {
		t.Error("expected error for empty earnings history")
	}

	src = &fakeSource{eventsErr: errors.New("api down")}
	if _, err := New(src, &fakeExtractor{}, nil, 0).AnalyzeTicker(context.Background(), "ACME", 8); err == nil {
		t.Error("expected error when earnings fetch fails")
	}
}

func TestAnalyzeTickerThreadsRiskHistory(t *testing.T) {
	prices := flatSeries(60, 100)
	eventIdx := []int{5, 13, 21, 29, 37}
	risks := []int{50, 52, 48, 51, 80}

	var events []types.EarningsRaw
	transcripts := make(map[string]string)
	var dates []types.TranscriptDate
	var features []types.SemanticFeatures
	for i, idx := range eventIdx {
		d := prices[idx].Date
		events = append(events, types.EarningsRaw{Date: d, Symbol: "ACME"})
		// Distinct fiscal quarters so each event resolves its own transcript
		year, quarter := 2023+i/4, i%4+1
		transcripts[fmt.Sprintf("%d-%d", year, quarter)] = "Management reviewed the quarter."
		dates = append(dates, types.TranscriptDate{Date: d, Year: year, Quarter: quarter})
		features = append(features, neutralWithRisk(risks[i]))
	}

	src := &fakeSource{events: events, prices: prices, transcripts: transcripts, dates: dates}
	ext := &fakeExtractor{features: features}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}

	if len(ext.requests) != 5 {
		t.Fatalf("extractor called %d times, want 5", len(ext.requests))
	}
	for i := 1; i < len(ext.requests); i++ {
		if ext.requests[i-1].EarningDate >= ext.requests[i].EarningDate {
			t.Error("events not processed oldest first")
		}
	}

	// Most recent event saw history [50 52 48 51] and its own risk score
	// of 80: a spike with a flat price reaction reads bearish.
	latest := res.Events[0]
	if latest.Signals == nil {
		t.Fatal("latest event missing signals")
	}
	regime := latest.Signals.RegimeShift
	if regime.Score != 0 {
		t.Errorf("regime score = %v, want 0 (strong bearish)", regime.Score)
	}
	if !strings.Contains(regime.Explanation, "z=") {
		t.Errorf("regime explanation = %q", regime.Explanation)
	}
	if res.EventsWithSignals != 1 {
		t.Errorf("events with signals = %d, want 1", res.EventsWithSignals)
	}

	// Earlier events lacked enough history and stay neutral
	oldest := res.Events[len(res.Events)-1]
	if oldest.Signals.RegimeShift.Score != signals.BaseScore {
		t.Errorf("oldest regime score = %v, want neutral", oldest.Signals.RegimeShift.Score)
	}
}

func TestAnalyzeTickerConfigurableRegimeMinimum(t *testing.T) {
	prices := flatSeries(40, 100)
	eventIdx := []int{5, 13, 21}
	risks := []int{50, 51, 80}

	var events []types.EarningsRaw
	transcripts := make(map[string]string)
	var dates []types.TranscriptDate
	var features []types.SemanticFeatures
	for i, idx := range eventIdx {
		d := prices[idx].Date
		events = append(events, types.EarningsRaw{Date: d, Symbol: "ACME"})
		transcripts[fmt.Sprintf("2024-%d", i+1)] = "Management reviewed the quarter."
		dates = append(dates, types.TranscriptDate{Date: d, Year: 2024, Quarter: i + 1})
		features = append(features, neutralWithRisk(risks[i]))
	}

	src := &fakeSource{events: events, prices: prices, transcripts: transcripts, dates: dates}
	ext := &fakeExtractor{features: features}

	// With a minimum of 2, the third event's two prior scores are enough
	// for a z-score; [50 51] vs 80 is an extreme spike.
	res, err := New(src, ext, nil, 2).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}

	latest := res.Events[0]
	if latest.Signals == nil {
		t.Fatal("latest event missing signals")
	}
	regime := latest.Signals.RegimeShift
	if strings.Contains(regime.Explanation, "Insufficient history") {
		t.Fatalf("configured minimum ignored: %q", regime.Explanation)
	}
	if !strings.Contains(regime.Explanation, "z=") {
		t.Errorf("regime explanation = %q, want z-score", regime.Explanation)
	}
	if regime.Score != 0 {
		t.Errorf("regime score = %v, want 0 (strong bearish)", regime.Score)
	}

	// The second event has a single prior score, still below the minimum
	middle := res.Events[1]
	if !strings.Contains(middle.Signals.RegimeShift.Explanation, "Insufficient history (< 2 events)") {
		t.Errorf("middle regime explanation = %q", middle.Signals.RegimeShift.Explanation)
	}
}

func TestAnalyzeTickerKeepsEmptyForwardReturns(t *testing.T) {
	prices := flatSeries(12, 100)
	// A bad final bar resolves the reaction window but leaves no valid
	// start price for forward windows.
	prices[11].Close = 0
	eventDate := prices[10].Date

	src := &fakeSource{
		events: []types.EarningsRaw{{Date: eventDate, Symbol: "ACME"}},
		prices: prices,
		transcripts: map[string]string{
			"2024-1": "Operator: Good afternoon, welcome to the call.",
		},
		dates: []types.TranscriptDate{{Date: eventDate, Year: 2024, Quarter: 1}},
	}
	ext := &fakeExtractor{features: []types.SemanticFeatures{neutralWithRisk(40)}}

	res, err := New(src, ext, []int{2}, 0).AnalyzeTicker(context.Background(), "ACME", 8)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}

	ev := res.Events[0]
	if ev.CallTime != types.CallTimeAMC {
		t.Fatalf("call time = %v, want AMC", ev.CallTime)
	}
	if ev.Day0Return == nil {
		t.Fatal("day0 return not resolved")
	}
	if ev.ForwardReturns == nil {
		t.Error("forward returns are nil, want empty slice")
	}
	if len(ev.ForwardReturns) != 0 {
		t.Errorf("forward returns = %+v, want none", ev.ForwardReturns)
	}
}
