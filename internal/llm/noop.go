package llm

import (
	"context"

	"earnings-reversal/internal/types"
)

// NoopExtractor returns the neutral default feature record for every
// transcript. Useful for dry runs and offline testing where no model
// deployment is reachable.
type NoopExtractor struct{}

func NewNoopExtractor() *NoopExtractor { return &NoopExtractor{} }

func (n *NoopExtractor) Extract(_ context.Context, _ types.ExtractRequest) (types.SemanticFeatures, error) {
	return types.DefaultFeatures(), nil
}
