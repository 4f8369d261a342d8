package interfaces

import (
	"context"

	"earnings-reversal/internal/types"
)

// DataSource supplies the market data the analyzer consumes. All methods
// are read-only; implementations must not retry internally.
type DataSource interface {
	EarningsEvents(ctx context.Context, symbol string, limit int) ([]types.EarningsRaw, error)
	PriceHistory(ctx context.Context, symbol string) ([]types.PriceBar, error)
	Transcript(ctx context.Context, symbol string, year, quarter int) (string, error)
	TranscriptDates(ctx context.Context, symbol string) ([]types.TranscriptDate, error)
}
