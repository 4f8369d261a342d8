package signals

import (
	"strconv"

	"earnings-reversal/internal/types"
)

// SummaryHitRates aggregates trade outcomes per horizon across all
// analyzed events of one ticker. Horizons without any observed trades are
// still emitted as zero-trade stats with a nil hit rate.
func SummaryHitRates(allReturns [][]types.ForwardReturn, horizons []int) map[string]types.HitRateStat {
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}

	byHorizon := make(map[int][]types.ForwardReturn)
	for _, eventReturns := range allReturns {
		for _, fr := range eventReturns {
			byHorizon[fr.Horizon] = append(byHorizon[fr.Horizon], fr)
		}
	}

	result := make(map[string]types.HitRateStat, len(horizons))
	for _, horizon := range horizons {
		var trades, hits int
		for _, fr := range byHorizon[horizon] {
			if fr.Hit == nil {
				continue
			}
			trades++
			if *fr.Hit {
				hits++
			}
		}

		stat := types.HitRateStat{NumTrades: trades, NumHits: hits}
		if trades > 0 {
			stat.HitRate = types.Float64Ptr(float64(hits) / float64(trades))
		}
		result[strconv.Itoa(horizon)] = stat
	}
	return result
}
