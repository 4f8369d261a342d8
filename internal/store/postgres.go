package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"earnings-reversal/internal/types"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("store: not found")

// DB is a read-only view over the research database. The engine never
// writes to it; all result persistence happens upstream of this service.
type DB struct {
	db      *sqlx.DB
	timeout time.Duration
}

// EarningsEvent is one row of the earnings_transcripts table.
type EarningsEvent struct {
	Symbol         string       `db:"symbol"`
	Year           int          `db:"year"`
	Quarter        int          `db:"quarter"`
	EarningDate    time.Time    `db:"earning_date"`
	TranscriptDate sql.NullTime `db:"transcript_date"`
}

// Open connects to the configured postgres instance and verifies the
// connection before returning.
func Open(cfg *Config) (*DB, error) {
	if !cfg.Database.Enabled {
		return nil, errors.New("store: database is not enabled in config")
	}
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{db: db, timeout: 15 * time.Second}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Transcript fetches the stored transcript for one fiscal quarter.
// Returns ErrNotFound when the table has no row for that quarter.
func (d *DB) Transcript(ctx context.Context, symbol string, year, quarter int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	query := `
		SELECT content
		FROM transcript_content
		WHERE symbol = $1 AND year = $2 AND quarter = $3
		LIMIT 1`

	var content sql.NullString
	err := d.db.GetContext(ctx, &content, query, strings.ToUpper(symbol), year, quarter)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query transcript %s Q%d %d: %w", symbol, quarter, year, err)
	}
	if !content.Valid || content.String == "" {
		return "", ErrNotFound
	}
	return content.String, nil
}

// EarningsEvents lists stored earnings events for a symbol, newest first.
func (d *DB) EarningsEvents(ctx context.Context, symbol string, limit int) ([]EarningsEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	query := `
		SELECT symbol, year, quarter, t_day AS earning_date, transcript_date
		FROM earnings_transcripts
		WHERE symbol = $1
		ORDER BY year DESC, quarter DESC
		LIMIT $2`

	var events []EarningsEvent
	if err := d.db.SelectContext(ctx, &events, query, strings.ToUpper(symbol), limit); err != nil {
		return nil, fmt.Errorf("failed to query earnings events for %s: %w", symbol, err)
	}
	return events, nil
}

type priceRow struct {
	Date   time.Time       `db:"date"`
	Open   sql.NullFloat64 `db:"open"`
	High   sql.NullFloat64 `db:"high"`
	Low    sql.NullFloat64 `db:"low"`
	Close  sql.NullFloat64 `db:"close"`
	Volume sql.NullInt64   `db:"volume"`
}

// PriceHistory returns the full daily price series for a symbol, oldest
// first. Rows with a missing or non-positive close are dropped.
func (d *DB) PriceHistory(ctx context.Context, symbol string) ([]types.PriceBar, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	query := `
		SELECT date, open, high, low, close, volume
		FROM historical_prices
		WHERE symbol = $1
		ORDER BY date ASC`

	var rows []priceRow
	if err := d.db.SelectContext(ctx, &rows, query, strings.ToUpper(symbol)); err != nil {
		return nil, fmt.Errorf("failed to query price history for %s: %w", symbol, err)
	}

	bars := make([]types.PriceBar, 0, len(rows))
	for _, r := range rows {
		if !r.Close.Valid || r.Close.Float64 <= 0 {
			continue
		}
		bars = append(bars, types.PriceBar{
			Date:   r.Date.Format("2006-01-02"),
			Open:   r.Open.Float64,
			High:   r.High.Float64,
			Low:    r.Low.Float64,
			Close:  r.Close.Float64,
			Volume: r.Volume.Int64,
		})
	}
	return bars, nil
}

// AvailableSymbols lists every symbol present in the companies table.
func (d *DB) AvailableSymbols(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var symbols []string
	err := d.db.SelectContext(ctx, &symbols, `SELECT DISTINCT symbol FROM companies ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	return symbols, nil
}
