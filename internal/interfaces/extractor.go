package interfaces

import (
	"context"

	"earnings-reversal/internal/types"
)

// Extractor turns one earnings-call transcript into the semantic feature
// record. Implementations clamp every field into its documented range.
type Extractor interface {
	Extract(ctx context.Context, req types.ExtractRequest) (types.SemanticFeatures, error)
}

// Analyzer runs the full per-ticker pipeline.
type Analyzer interface {
	AnalyzeTicker(ctx context.Context, ticker string, maxEvents int) (*types.TickerResult, error)
}
