package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"earnings-reversal/internal/fmp"
	"earnings-reversal/internal/interfaces"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/signals"
	"earnings-reversal/internal/trace"
	"earnings-reversal/internal/types"
)

// Analyzer runs the per-ticker pipeline: fetch earnings and prices,
// extract semantic features per event, score the five reversal signals
// and measure forward returns.
type Analyzer struct {
	source           interfaces.DataSource
	extractor        interfaces.Extractor
	horizons         []int
	minRegimeHistory int
}

var _ interfaces.Analyzer = (*Analyzer)(nil)

// New builds an Analyzer. horizons defaults to the standard windows when
// empty; minRegimeHistory <= 0 selects the default minimum.
func New(source interfaces.DataSource, extractor interfaces.Extractor, horizons []int, minRegimeHistory int) *Analyzer {
	if len(horizons) == 0 {
		horizons = signals.DefaultHorizons
	}
	if minRegimeHistory <= 0 {
		minRegimeHistory = signals.DefaultMinRegimeHistory
	}
	return &Analyzer{
		source:           source,
		extractor:        extractor,
		horizons:         horizons,
		minRegimeHistory: minRegimeHistory,
	}
}

// AnalyzeTicker analyzes the most recent maxEvents earnings events of one
// ticker. It fails only when no event at all could be analyzed; events
// with missing transcripts degrade to neutral features, and events whose
// reaction window cannot be resolved are reported with a failed status.
func (a *Analyzer) AnalyzeTicker(ctx context.Context, ticker string, maxEvents int) (*types.TickerResult, error) {
	ctx, span := trace.StartSpan(ctx, "analysis.AnalyzeTicker")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	logger.Info(ctx, "Starting ticker analysis", "symbol", symbol, "max_events", maxEvents)

	earnings, err := a.source.EarningsEvents(ctx, symbol, maxEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings data for %s: %w", symbol, err)
	}
	if len(earnings) == 0 {
		return nil, fmt.Errorf("no earnings data found for ticker: %s", symbol)
	}
	totalFound := len(earnings)

	prices, err := a.source.PriceHistory(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price data for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no price data found for ticker: %s", symbol)
	}
	logger.Info(ctx, "Fetched market data", "symbol", symbol, "events", totalFound, "price_bars", len(prices))

	// Oldest first so the regime-shift history builds up chronologically
	sort.Slice(earnings, func(i, j int) bool { return earnings[i].Date < earnings[j].Date })

	// Fiscal year/quarter lookup for transcript retrieval. Calendar
	// quarters are the fallback when the listing has no entry.
	fiscal := make(map[string]types.TranscriptDate)
	if dates, err := a.source.TranscriptDates(ctx, symbol); err != nil {
		logger.Warn(ctx, "Failed to fetch transcript dates", "symbol", symbol, "error", err)
	} else {
		for _, td := range dates {
			if td.Date != "" && td.Year != 0 && td.Quarter != 0 {
				fiscal[td.Date] = td
			}
		}
	}

	var (
		events            []types.EventResult
		allForwardReturns [][]types.ForwardReturn
		riskHistory       []int
		eventsWithSignals int
	)

	for i, earning := range earnings {
		logger.Info(ctx, "Processing earnings event",
			"symbol", symbol, "date", earning.Date, "event", i+1, "total", len(earnings))

		var year, quarter int
		if td, ok := fiscal[earning.Date]; ok {
			year, quarter = td.Year, td.Quarter
		} else {
			year, quarter = fmp.DateToQuarter(earning.Date)
		}

		result := types.EventResult{
			EarningDate:     earning.Date,
			Year:            year,
			Quarter:         quarter,
			EPS:             earning.EPS,
			EPSEstimate:     earning.EPSEstimated,
			Revenue:         earning.Revenue,
			RevenueEstimate: earning.RevenueEstimated,
			CallTime:        types.CallTimeUnknown,
			ForwardReturns:  []types.ForwardReturn{},
		}

		// Transcript first: call time drives the reaction window
		transcript, err := a.source.Transcript(ctx, symbol, year, quarter)
		if err != nil {
			logger.Warn(ctx, "Failed to fetch transcript",
				"symbol", symbol, "date", earning.Date, "error", err)
			transcript = ""
		}
		if transcript != "" {
			result.CallTime = fmp.DetectCallTime(transcript)
		}

		day0 := signals.Day0Return(prices, earning.Date, result.CallTime)
		if day0 == nil {
			logger.Warn(ctx, "Could not resolve reaction window, skipping signals",
				"symbol", symbol, "date", earning.Date)
			result.Status = types.EventStatus{
				Success:      false,
				ErrorMessage: "Could not calculate day0 return (missing price data)",
			}
			events = append(events, result)
			continue
		}
		result.Day0Return = day0

		status := types.EventStatus{Success: true, TranscriptAvailable: true, ExtractionSucceeded: true}
		var features types.SemanticFeatures
		if transcript == "" {
			logger.Warn(ctx, "No transcript available, using neutral features",
				"symbol", symbol, "date", earning.Date, "year", year, "quarter", quarter)
			status.TranscriptAvailable = false
			status.ExtractionSucceeded = false
			features = types.DefaultFeatures()
		} else {
			features, err = a.extractor.Extract(ctx, types.ExtractRequest{
				Symbol:           symbol,
				EarningDate:      earning.Date,
				Year:             year,
				Quarter:          quarter,
				EPS:              earning.EPS,
				EPSEstimated:     earning.EPSEstimated,
				Revenue:          earning.Revenue,
				RevenueEstimated: earning.RevenueEstimated,
				Day0Return:       *day0,
				Transcript:       transcript,
			})
			if err != nil {
				logger.ErrorWithErr(ctx, "Feature extraction failed, using neutral features", err,
					"symbol", symbol, "date", earning.Date)
				status.ExtractionSucceeded = false
				status.ErrorMessage = fmt.Sprintf("LLM analysis failed: %v", err)
				features = types.DefaultFeatures()
			}
		}
		result.SemanticFeatures = &features
		result.Status = status

		sigs := signals.CalculateAll(earning, features, *day0, riskHistory, a.minRegimeHistory)
		result.Signals = &sigs

		if sigs.FinalSignal.Score < signals.BearishThreshold || sigs.FinalSignal.Score > signals.BullishThreshold {
			eventsWithSignals++
		}

		// The current event's own risk score only feeds future events
		riskHistory = append(riskHistory, features.RiskFocusScore)

		if forward := signals.ForwardReturns(prices, earning.Date, sigs.FinalSignal.Score, result.CallTime, a.horizons); forward != nil {
			result.ForwardReturns = forward
		}
		allForwardReturns = append(allForwardReturns, result.ForwardReturns)

		logger.Signal(ctx, symbol, earning.Date, sigs.FinalSignal.Score, sigs.FinalSignal.Explanation)
		events = append(events, result)
	}

	analyzed := 0
	for _, e := range events {
		if e.Signals != nil {
			analyzed++
		}
	}
	if analyzed == 0 {
		return nil, fmt.Errorf("could not process any earnings events for ticker: %s", symbol)
	}

	// Most recent first for reporting
	sort.Slice(events, func(i, j int) bool { return events[i].EarningDate > events[j].EarningDate })

	logger.Info(ctx, "Ticker analysis complete",
		"symbol", symbol,
		"events_analyzed", analyzed,
		"events_found", totalFound,
		"events_with_signals", eventsWithSignals,
	)

	return &types.TickerResult{
		Ticker:            symbol,
		Events:            events,
		HitRates:          signals.SummaryHitRates(allForwardReturns, a.horizons),
		TotalEventsFound:  totalFound,
		EventsAnalyzed:    analyzed,
		EventsWithSignals: eventsWithSignals,
	}, nil
}
