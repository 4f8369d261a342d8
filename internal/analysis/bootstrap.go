package analysis

import (
	"context"

	"earnings-reversal/internal/fmp"
	"earnings-reversal/internal/interfaces"
	"earnings-reversal/internal/llm"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/store"
)

// BuildFromConfig wires the data sources and the extractor described by
// cfg into a ready Analyzer. The returned cleanup closes the database
// connection when one was opened.
func BuildFromConfig(ctx context.Context, cfg *store.Config) (*Analyzer, func(), error) {
	fmpClient := fmp.NewClient(cfg.FMPAPIKey(), cfg.FMP.RequestsPerSecond)

	var db *store.DB
	cleanup := func() {}
	if cfg.Database.Enabled {
		d, err := store.Open(cfg)
		if err != nil {
			logger.Warn(ctx, "Database unavailable, using API only", "error", err)
		} else {
			db = d
			cleanup = func() { d.Close() }
		}
	}
	source := NewCompositeSource(db, fmpClient)

	var extractor interfaces.Extractor
	if cfg.LLM.Provider == "noop" {
		extractor = llm.NewNoopExtractor()
	} else {
		az, err := llm.NewAzureExtractor(llm.AzureConfig{
			Endpoint:    cfg.LLMEndpoint(),
			APIKey:      cfg.LLMAPIKey(),
			Deployment:  cfg.LLM.Deployment,
			APIVersion:  cfg.LLM.APIVersion,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Concurrency: cfg.LLM.Concurrency,
			MaxChars:    cfg.LLM.MaxChars,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		extractor = az
	}
	extractor = llm.WrapObservability(extractor)

	return New(source, extractor, cfg.Analysis.Horizons, cfg.Analysis.MinRegimeHistory), cleanup, nil
}
