package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"earnings-reversal/internal/analysis"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/signals"
	"earnings-reversal/internal/store"
	"earnings-reversal/internal/types"
)

func main() {
	_ = godotenv.Load()

	configPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitWithConfig(logger.Config{Level: "warn", Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if missing := cfg.MissingRuntimeConfig(); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "Missing configuration: %v\n", missing)
		os.Exit(1)
	}

	tickers := cfg.Universe
	if len(os.Args) > 1 && os.Args[1] != "--json" {
		tickers = []string{os.Args[1]}
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        Semantic Earnings Reversal - Universe Scan            ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Scanning %d tickers, up to %d events each...\n\n", len(tickers), cfg.MaxEvents)

	ctx := context.Background()
	analyzer, cleanup, err := analysis.BuildFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build analyzer: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	var results []*types.TickerResult
	for _, ticker := range tickers {
		result, err := analyzer.AnalyzeTicker(ctx, ticker, cfg.MaxEvents)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", ticker, err)
			continue
		}
		fmt.Printf("  ✓ %s: %d/%d events analyzed, %d with signals\n",
			result.Ticker, result.EventsAnalyzed, result.TotalEventsFound, result.EventsWithSignals)
		results = append(results, result)
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No tickers could be analyzed")
		os.Exit(1)
	}

	printSummary(results, cfg.Analysis.Horizons)

	for _, arg := range os.Args[1:] {
		if arg == "--json" {
			saveResultsJSON(results, "scan_results.json")
		}
	}
}

func printSummary(results []*types.TickerResult, horizons []int) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                      NON-NEUTRAL SIGNALS")
	fmt.Println("═══════════════════════════════════════════════════════════════")

	found := 0
	for _, result := range results {
		for _, event := range result.Events {
			if event.Signals == nil {
				continue
			}
			score := event.Signals.FinalSignal.Score
			if score >= signals.BearishThreshold && score <= signals.BullishThreshold {
				continue
			}
			found++
			direction := "BEARISH"
			if score > signals.BullishThreshold {
				direction = "BULLISH"
			}
			fmt.Printf("\n%s  %s  [%s %.1f]\n", result.Ticker, event.EarningDate, direction, score)
			fmt.Printf("  %s\n", event.Signals.FinalSignal.Explanation)
			if event.Day0Return != nil {
				fmt.Printf("  Day 0 return: %+.2f%%\n", *event.Day0Return*100)
			}
			for _, fr := range event.ForwardReturns {
				hit := "-"
				if fr.Hit != nil {
					if *fr.Hit {
						hit = "HIT"
					} else {
						hit = "MISS"
					}
				}
				fmt.Printf("  T+%-3d %+7.2f%%  %s\n", fr.Horizon, fr.ReturnPct*100, hit)
			}
		}
	}
	if found == 0 {
		fmt.Println("\nNo non-neutral signals in the scanned window.")
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                      HIT RATES BY HORIZON")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	for _, result := range results {
		fmt.Printf("\n%s\n", result.Ticker)
		for _, h := range horizons {
			key := strconv.Itoa(h)
			stat, ok := result.HitRates[key]
			if !ok {
				continue
			}
			if stat.HitRate == nil {
				fmt.Printf("  T+%-3s  no trades\n", key)
				continue
			}
			fmt.Printf("  T+%-3s  %d/%d hits (%.0f%%)\n", key, stat.NumHits, stat.NumTrades, *stat.HitRate*100)
		}
	}
}

func saveResultsJSON(results []*types.TickerResult, path string) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal results: %v\n", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
		return
	}
	fmt.Printf("\n💾 Results saved to %s\n", path)
}
