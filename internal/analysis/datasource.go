package analysis

import (
	"context"
	"errors"

	"earnings-reversal/internal/interfaces"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/store"
	"earnings-reversal/internal/types"
)

// CompositeSource reads from the research database first and falls back
// to the remote API when the database is missing data. The database is
// never written to.
type CompositeSource struct {
	db       *store.DB
	fallback interfaces.DataSource
}

var _ interfaces.DataSource = (*CompositeSource)(nil)

// NewCompositeSource builds a DB-first source. db may be nil, in which
// case every call goes straight to the fallback.
func NewCompositeSource(db *store.DB, fallback interfaces.DataSource) *CompositeSource {
	return &CompositeSource{db: db, fallback: fallback}
}

func (s *CompositeSource) EarningsEvents(ctx context.Context, symbol string, limit int) ([]types.EarningsRaw, error) {
	if s.db != nil {
		rows, err := s.db.EarningsEvents(ctx, symbol, limit)
		if err != nil {
			logger.Warn(ctx, "DB earnings query failed, falling back to API", "symbol", symbol, "error", err)
		} else if len(rows) > 0 {
			logger.Info(ctx, "Using DB earnings events", "symbol", symbol, "count", len(rows))
			events := make([]types.EarningsRaw, 0, len(rows))
			for _, row := range rows {
				// The research DB carries dates but no estimates
				events = append(events, types.EarningsRaw{
					Date:   row.EarningDate.Format("2006-01-02"),
					Symbol: row.Symbol,
				})
			}
			return events, nil
		}
	}
	return s.fallback.EarningsEvents(ctx, symbol, limit)
}

func (s *CompositeSource) PriceHistory(ctx context.Context, symbol string) ([]types.PriceBar, error) {
	if s.db != nil {
		bars, err := s.db.PriceHistory(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "DB price query failed, falling back to API", "symbol", symbol, "error", err)
		} else if len(bars) > 0 {
			logger.Info(ctx, "Using DB price history", "symbol", symbol, "bars", len(bars))
			return bars, nil
		}
	}
	return s.fallback.PriceHistory(ctx, symbol)
}

func (s *CompositeSource) Transcript(ctx context.Context, symbol string, year, quarter int) (string, error) {
	if s.db != nil {
		text, err := s.db.Transcript(ctx, symbol, year, quarter)
		if err == nil {
			logger.Info(ctx, "Using DB transcript", "symbol", symbol, "year", year, "quarter", quarter)
			return text, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn(ctx, "DB transcript query failed, falling back to API",
				"symbol", symbol, "year", year, "quarter", quarter, "error", err)
		}
	}
	return s.fallback.Transcript(ctx, symbol, year, quarter)
}

func (s *CompositeSource) TranscriptDates(ctx context.Context, symbol string) ([]types.TranscriptDate, error) {
	if s.db != nil {
		rows, err := s.db.EarningsEvents(ctx, symbol, 1000)
		if err != nil {
			logger.Warn(ctx, "DB transcript date query failed, falling back to API", "symbol", symbol, "error", err)
		} else if len(rows) > 0 {
			dates := make([]types.TranscriptDate, 0, len(rows))
			for _, row := range rows {
				date := row.EarningDate
				if row.TranscriptDate.Valid {
					date = row.TranscriptDate.Time
				}
				dates = append(dates, types.TranscriptDate{
					Date:    date.Format("2006-01-02"),
					Year:    row.Year,
					Quarter: row.Quarter,
				})
			}
			return dates, nil
		}
	}
	return s.fallback.TranscriptDates(ctx, symbol)
}
