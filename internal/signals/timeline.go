package signals

import (
	"earnings-reversal/internal/types"
)

// DefaultHorizons are the forward-return windows in trading days.
var DefaultHorizons = []int{5, 10, 30, 60}

// firstOnOrAfter returns the index of the first bar with date >= target,
// or -1 when none exists. Linear scan; series lengths are bounded.
func firstOnOrAfter(prices []types.PriceBar, target string) int {
	for i, bar := range prices {
		if bar.Date >= target {
			return i
		}
	}
	return -1
}

// lastBefore returns the index of the last bar with date < target, or -1
// when none exists.
func lastBefore(prices []types.PriceBar, target string) int {
	result := -1
	for i, bar := range prices {
		if bar.Date < target {
			result = i
		} else {
			break
		}
	}
	return result
}

// day0Index resolves the T-1 and T0 bar indexes for an event.
//
// BMO and unknown: the market reacts the same session, so T-1 is the last
// bar before the event date and T0 the first bar on or after it. AMC: the
// announcement lands after the close, so T-1 is the event date's bar and
// T0 the next one. Returns (-1,-1) when either index cannot be resolved.
func day0Index(prices []types.PriceBar, eventDate string, callTime types.CallTime) (tMinus1, t0 int) {
	if callTime == types.CallTimeAMC {
		tMinus1 = firstOnOrAfter(prices, eventDate)
		if tMinus1 < 0 || tMinus1+1 >= len(prices) {
			return -1, -1
		}
		return tMinus1, tMinus1 + 1
	}
	tMinus1 = lastBefore(prices, eventDate)
	t0 = firstOnOrAfter(prices, eventDate)
	if tMinus1 < 0 || t0 < 0 {
		return -1, -1
	}
	return tMinus1, t0
}

// Day0Return computes the close-to-close return around the announcement.
// Returns nil when the required bars do not exist or the prior close is
// non-positive; the event should then be skipped downstream.
func Day0Return(prices []types.PriceBar, eventDate string, callTime types.CallTime) *float64 {
	tMinus1, t0 := day0Index(prices, eventDate, callTime)
	if tMinus1 < 0 || t0 < 0 {
		return nil
	}
	before := prices[tMinus1].Close
	after := prices[t0].Close
	if before <= 0 {
		return nil
	}
	r := (after - before) / before
	return &r
}

// ForwardReturns computes realized returns from T0 out to each horizon.
// Horizons whose end bar lies beyond the series are skipped, not errors.
// finalScore drives the per-horizon hit flag: inside the neutral zone no
// trade is taken and Hit stays nil.
func ForwardReturns(prices []types.PriceBar, eventDate string, finalScore float64, callTime types.CallTime, horizons []int) []types.ForwardReturn {
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}

	var t0 int
	if callTime == types.CallTimeAMC {
		eventIdx := firstOnOrAfter(prices, eventDate)
		if eventIdx < 0 || eventIdx+1 >= len(prices) {
			return nil
		}
		t0 = eventIdx + 1
	} else {
		t0 = firstOnOrAfter(prices, eventDate)
		if t0 < 0 {
			return nil
		}
	}

	start := prices[t0]
	if start.Close <= 0 {
		return nil
	}

	results := make([]types.ForwardReturn, 0, len(horizons))
	for _, horizon := range horizons {
		endIdx := t0 + horizon
		if endIdx >= len(prices) {
			continue
		}
		end := prices[endIdx]
		returnPct := (end.Close - start.Close) / start.Close

		results = append(results, types.ForwardReturn{
			Horizon:   horizon,
			StartDate: start.Date,
			EndDate:   end.Date,
			ReturnPct: returnPct,
			Hit:       hitFlag(finalScore, returnPct),
		})
	}
	return results
}

// hitFlag applies the trade-outcome policy: neutral scores take no trade,
// otherwise a hit is a forward return whose sign agrees with the signal.
func hitFlag(finalScore, returnPct float64) *bool {
	if finalScore >= BearishThreshold && finalScore <= BullishThreshold {
		return nil
	}
	hit := (finalScore > BullishThreshold && returnPct > 0) ||
		(finalScore < BearishThreshold && returnPct < 0)
	return &hit
}
