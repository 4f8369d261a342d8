package llm

import (
	"context"

	"earnings-reversal/internal/interfaces"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/trace"
	"earnings-reversal/internal/types"
)

// observableExtractor wraps an Extractor with logging and tracing.
type observableExtractor struct {
	extractor interfaces.Extractor
}

var _ interfaces.Extractor = (*observableExtractor)(nil)

// WrapObservability wraps an extractor with observability middleware.
func WrapObservability(extractor interfaces.Extractor) interfaces.Extractor {
	return &observableExtractor{extractor: extractor}
}

func (oe *observableExtractor) Extract(ctx context.Context, req types.ExtractRequest) (types.SemanticFeatures, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Extract")
	defer span.End()

	logger.Debug(ctx, "Requesting feature extraction",
		"symbol", req.Symbol,
		"earning_date", req.EarningDate,
		"quarter", req.Quarter,
		"year", req.Year,
	)

	features, err := oe.extractor.Extract(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Feature extraction failed", err,
			"symbol", req.Symbol,
			"earning_date", req.EarningDate,
		)
		return types.SemanticFeatures{}, err
	}

	logger.Info(ctx, "Feature extraction completed",
		"symbol", req.Symbol,
		"earning_date", req.EarningDate,
		"overall_tone", features.Tone.OverallTone,
		"numbers_strength", features.Numbers.OverallNumbersStrength,
		"risk_focus", features.RiskFocusScore,
	)
	return features, nil
}
