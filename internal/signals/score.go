// Package signals implements the semantic reversal signal engine: five
// independent signal calculators, their aggregation into a final signal,
// the market-reaction timeline alignment (Day 0 and forward returns), and
// the hit-rate summary across events.
package signals

// BaseScore is the neutral center of the 0-10 signal scale.
const BaseScore = 5.0

// Score classification thresholds shared by the aggregator and the hit
// policy: above Bullish is a long, below Bearish is a short, in between
// no trade is taken.
const (
	BullishThreshold = 5.5
	BearishThreshold = 4.5
)

// Verdict is the shared outcome of a calculator's decision rule: either a
// directional call with a strength, or neutral with a stated reason. It
// keeps the insufficient-data-to-neutral conversion in one place instead
// of duplicating it per calculator.
type Verdict struct {
	Direction int     // -1 bearish, 0 neutral, +1 bullish
	Strength  float64 // 0..1
	Reason    string
}

// Neutral returns a neutral verdict carrying the explanation for it.
func Neutral(reason string) Verdict {
	return Verdict{Reason: reason}
}

// Directional returns a directional verdict.
func Directional(direction int, strength float64, reason string) Verdict {
	return Verdict{Direction: direction, Strength: strength, Reason: reason}
}

// Score converts the verdict to the 0-10 scale:
// 0 = strong bearish reversal, 5 = neutral, 10 = strong bullish reversal.
// Pure and total; direction 0 or non-positive strength maps to 5.0.
func (v Verdict) Score() float64 {
	return toScore(v.Direction, v.Strength)
}

func toScore(direction int, strength float64) float64 {
	if direction == 0 || strength <= 0 {
		return BaseScore
	}
	strength = clamp(strength, 0, 1)
	return clamp(BaseScore+float64(direction)*strength*BaseScore, 0, 10)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
