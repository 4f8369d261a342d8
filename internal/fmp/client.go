package fmp

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"earnings-reversal/internal/api"
	"earnings-reversal/internal/types"
)

// BaseURL is the stable API root. Every endpoint below hangs off it.
const BaseURL = "https://financialmodelingprep.com/stable"

// Client fetches earnings, prices and transcripts from Financial Modeling
// Prep. Requests are rate-limited; a failed request surfaces to the
// caller without retries.
type Client struct {
	api     *api.Client
	apiKey  string
	limiter *rate.Limiter
}

// NewClient builds an FMP client. rps caps outbound requests per second.
func NewClient(apiKey string, rps float64) *Client {
	if rps <= 0 {
		rps = 4
	}
	return &Client{
		api: api.NewClient(
			api.WithBaseURL(BaseURL),
			api.WithTimeout(60*time.Second),
			api.WithLogging(true),
		),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*api.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params.Set("apikey", c.apiKey)
	return c.api.GET(ctx, "/"+endpoint+"?"+params.Encode())
}

type earningsEntry struct {
	Date             string   `json:"date"`
	Symbol           string   `json:"symbol"`
	EPSActual        *float64 `json:"epsActual"`
	EPS              *float64 `json:"eps"`
	EPSEstimated     *float64 `json:"epsEstimated"`
	RevenueActual    *float64 `json:"revenueActual"`
	Revenue          *float64 `json:"revenue"`
	RevenueEstimated *float64 `json:"revenueEstimated"`
}

// EarningsEvents fetches historical earnings for a symbol, newest first.
// Entries without a date or without any actual figure are skipped.
func (c *Client) EarningsEvents(ctx context.Context, symbol string, limit int) ([]types.EarningsRaw, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, "earnings", params)
	if err != nil {
		return nil, fmt.Errorf("fmp earnings for %s: %w", symbol, err)
	}

	var entries []earningsEntry
	if err := resp.ParseJSON(&entries); err != nil {
		return nil, fmt.Errorf("fmp earnings for %s: %w", symbol, err)
	}

	events := make([]types.EarningsRaw, 0, len(entries))
	for _, e := range entries {
		eps := e.EPSActual
		if eps == nil {
			eps = e.EPS
		}
		revenue := e.RevenueActual
		if revenue == nil {
			revenue = e.Revenue
		}
		if e.Date == "" || (eps == nil && revenue == nil) {
			continue
		}
		sym := e.Symbol
		if sym == "" {
			sym = symbol
		}
		events = append(events, types.EarningsRaw{
			Date:             e.Date,
			Symbol:           sym,
			EPS:              eps,
			EPSEstimated:     e.EPSEstimated,
			Revenue:          revenue,
			RevenueEstimated: e.RevenueEstimated,
		})
	}
	return events, nil
}

type priceEntry struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// The full-history endpoint sometimes wraps the series in a "historical"
// object and sometimes returns the array directly.
type priceHistoryResponse struct {
	Historical []priceEntry `json:"historical"`
}

// PriceHistory fetches the full daily series for a symbol, sorted oldest
// first. Bars without a date or a positive close are dropped.
func (c *Client) PriceHistory(ctx context.Context, symbol string) ([]types.PriceBar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	resp, err := c.get(ctx, "historical-price-eod/full", params)
	if err != nil {
		return nil, fmt.Errorf("fmp price history for %s: %w", symbol, err)
	}

	var entries []priceEntry
	if err := resp.ParseJSON(&entries); err != nil {
		var wrapped priceHistoryResponse
		if err2 := resp.ParseJSON(&wrapped); err2 != nil {
			return nil, fmt.Errorf("fmp price history for %s: %w", symbol, err)
		}
		entries = wrapped.Historical
	}

	bars := make([]types.PriceBar, 0, len(entries))
	for _, e := range entries {
		if e.Date == "" || e.Close <= 0 {
			continue
		}
		bars = append(bars, types.PriceBar{
			Date:   e.Date,
			Open:   e.Open,
			High:   e.High,
			Low:    e.Low,
			Close:  e.Close,
			Volume: e.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

type transcriptEntry struct {
	Content    string `json:"content"`
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
}

// Transcript fetches the earnings-call transcript for one fiscal quarter.
// Returns an empty string when FMP has no transcript for that quarter.
func (c *Client) Transcript(ctx context.Context, symbol string, year, quarter int) (string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("year", strconv.Itoa(year))
	params.Set("quarter", strconv.Itoa(quarter))

	resp, err := c.get(ctx, "earning-call-transcript", params)
	if err != nil {
		return "", fmt.Errorf("fmp transcript for %s Q%d %d: %w", symbol, quarter, year, err)
	}

	var entries []transcriptEntry
	if err := resp.ParseJSON(&entries); err != nil {
		return "", fmt.Errorf("fmp transcript for %s Q%d %d: %w", symbol, quarter, year, err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	// Field name varies by plan tier
	for _, candidate := range []string{entries[0].Content, entries[0].Transcript, entries[0].Text} {
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", nil
}

// TranscriptDates lists the quarters FMP has transcripts for.
func (c *Client) TranscriptDates(ctx context.Context, symbol string) ([]types.TranscriptDate, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	resp, err := c.get(ctx, "earning-call-transcript-dates", params)
	if err != nil {
		return nil, fmt.Errorf("fmp transcript dates for %s: %w", symbol, err)
	}

	var dates []types.TranscriptDate
	if err := resp.ParseJSON(&dates); err != nil {
		return nil, fmt.Errorf("fmp transcript dates for %s: %w", symbol, err)
	}
	return dates, nil
}

// Profile is the subset of the company profile the engine cares about.
type Profile struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Exchange    string `json:"exchange"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
}

// CompanyProfile fetches basic company information for a symbol.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (*Profile, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	resp, err := c.get(ctx, "profile", params)
	if err != nil {
		return nil, fmt.Errorf("fmp profile for %s: %w", symbol, err)
	}

	var profiles []Profile
	if err := resp.ParseJSON(&profiles); err != nil {
		var single Profile
		if err2 := resp.ParseJSON(&single); err2 != nil {
			return nil, fmt.Errorf("fmp profile for %s: %w", symbol, err)
		}
		if single.Symbol == "" {
			return nil, nil
		}
		return &single, nil
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	p := profiles[0]
	if p.Symbol == "" {
		p.Symbol = strings.ToUpper(symbol)
	}
	return &p, nil
}
