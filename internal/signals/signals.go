package signals

import (
	"fmt"
	"math"

	"earnings-reversal/internal/types"
)

// Signal names as they appear in reports and explanations.
const (
	NameToneNumbers       = "Tone-Numbers Divergence"
	NamePreparedVsQA      = "Prepared vs. Q&A Asymmetry"
	NameRegimeShift       = "Language Regime Shift"
	NameTempVsStruct      = "Temporary vs. Structural Story"
	NameAnalystSkepticism = "Analyst Skepticism"
	NameFinal             = "Final Signal"
)

// DefaultMinRegimeHistory is the minimum number of prior risk-focus scores
// required before a regime-shift z-score is attempted.
const DefaultMinRegimeHistory = 4

// ToneNumbersDivergence detects management tone that contradicts the
// headline numbers. Strong numbers with negative tone reads bearish; weak
// numbers with positive tone reads bullish.
func ToneNumbersDivergence(features types.SemanticFeatures) types.SingleSignal {
	numbers := features.Numbers.OverallNumbersStrength
	tone := features.Tone.OverallTone

	var v Verdict
	switch {
	case numbers >= 1 && tone <= -1:
		strength := 0.6
		if numbers >= 2 || tone <= -2 {
			strength = 1.0
		}
		v = Directional(-1, strength, fmt.Sprintf(
			"Strong numbers (strength=%d) but negative tone (%d). This divergence can be a bearish reversal signal.",
			numbers, tone))
	case numbers <= -1 && tone >= 1:
		strength := 0.6
		if numbers <= -2 || tone >= 2 {
			strength = 1.0
		}
		v = Directional(1, strength, fmt.Sprintf(
			"Weak numbers (strength=%d) but positive tone (%d). This divergence can be a bullish reversal signal.",
			numbers, tone))
	default:
		v = Neutral(fmt.Sprintf(
			"Numbers and tone are broadly consistent (numbers=%d, tone=%d); no divergence.",
			numbers, tone))
	}

	return types.SingleSignal{Name: NameToneNumbers, Score: v.Score(), Explanation: v.Reason}
}

// PreparedVsQAAsymmetry detects Q&A tone diverging from prepared remarks
// against the direction of the Day 0 price move.
func PreparedVsQAAsymmetry(features types.SemanticFeatures, day0Return float64) types.SingleSignal {
	prepared := features.Tone.PreparedTone
	qa := features.Tone.QATone
	delta := float64(qa - prepared)

	var v Verdict
	switch {
	case delta <= -1 && day0Return > 0.05:
		strength := 0.6
		if delta <= -1.5 && day0Return >= 0.10 {
			strength = 1.0
		}
		v = Directional(-1, strength, fmt.Sprintf(
			"Q&A tone (%d) is meaningfully worse than prepared remarks (%d) while the stock jumped %.1f%% on earnings. Investors may be too optimistic; bearish reversal risk.",
			qa, prepared, day0Return*100))
	case delta >= 1 && day0Return < -0.05:
		strength := 0.6
		if delta >= 1.5 && day0Return <= -0.10 {
			strength = 1.0
		}
		v = Directional(1, strength, fmt.Sprintf(
			"Q&A tone (%d) is meaningfully better than prepared remarks (%d) while the stock sold off %.1f%% on earnings. Investors may be too pessimistic; bullish reversal opportunity.",
			qa, prepared, day0Return*100))
	default:
		v = Neutral(fmt.Sprintf(
			"Prepared remarks and Q&A tone are broadly aligned (delta=%+d, return=%.1f%%).",
			qa-prepared, day0Return*100))
	}

	return types.SingleSignal{Name: NamePreparedVsQA, Score: v.Score(), Explanation: v.Reason}
}

// RegimeShift detects a statistically unusual level of risk language
// versus the event's own trailing history. history must be chronological
// (oldest first) and must not include the current event's score.
func RegimeShift(currentRiskScore int, history []int, day0Return float64, minHistory int) types.SingleSignal {
	if minHistory <= 0 {
		minHistory = DefaultMinRegimeHistory
	}

	if len(history) < minHistory {
		return types.SingleSignal{
			Name:        NameRegimeShift,
			Score:       BaseScore,
			Explanation: fmt.Sprintf("Insufficient history (< %d events) to compute regime shift.", minHistory),
		}
	}

	mean, std := meanStdev(history)
	if std == 0 || math.IsNaN(std) {
		return types.SingleSignal{
			Name:        NameRegimeShift,
			Score:       BaseScore,
			Explanation: "Risk language history has zero variance; no detectable regime shift.",
		}
	}

	z := (float64(currentRiskScore) - mean) / std

	var v Verdict
	switch {
	case z >= 1.5 && day0Return >= 0:
		strength := 0.6
		if z >= 2.0 {
			strength = 1.0
		}
		v = Directional(-1, strength, fmt.Sprintf(
			"Risk language spiked (z=%.2f) compared to history, yet the stock did not fall (Day 0 return %.1f%%). Rising risk but complacent price -> bearish.",
			z, day0Return*100))
	case z <= -1.5 && day0Return <= 0:
		strength := 0.6
		if z <= -2.0 {
			strength = 1.0
		}
		v = Directional(1, strength, fmt.Sprintf(
			"Risk language dropped sharply (z=%.2f) compared to history, yet the stock did not rally (Day 0 return %.1f%%). Falling risk but depressed price -> bullish.",
			z, day0Return*100))
	default:
		v = Neutral(fmt.Sprintf("Risk language z-score is %.2f, within normal range; no clear regime shift.", z))
	}

	return types.SingleSignal{Name: NameRegimeShift, Score: v.Score(), Explanation: v.Reason}
}

// meanStdev returns the mean and sample standard deviation of xs.
func meanStdev(xs []int) (float64, float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := float64(x) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

// TempVsStruct detects overreaction to results that management attributes
// mostly to temporary factors. A miss explained away as temporary reads
// bullish; a beat built on temporary factors reads bearish. Neutral when
// EPS actual or estimate is missing.
func TempVsStruct(features types.SemanticFeatures, raw types.EarningsRaw) types.SingleSignal {
	if raw.EPS == nil || raw.EPSEstimated == nil {
		return types.SingleSignal{
			Name:        NameTempVsStruct,
			Score:       BaseScore,
			Explanation: "EPS actual/estimate not available; cannot compute EPS surprise.",
		}
	}

	surprise := *raw.EPS - *raw.EPSEstimated
	negTemp := features.Narrative.NegTemporaryRatio
	posTemp := features.Narrative.PosTemporaryRatio

	var v Verdict
	switch {
	case surprise < 0 && negTemp >= 0.7:
		strength := 0.6
		if negTemp >= 0.85 {
			strength = 1.0
		}
		v = Directional(1, strength, fmt.Sprintf(
			"EPS missed expectations (surprise %+.2f), but about %.0f%% of negative factors are described as temporary. Likely downside overreaction -> bullish.",
			surprise, negTemp*100))
	case surprise > 0 && posTemp >= 0.7:
		strength := 0.6
		if posTemp >= 0.85 {
			strength = 1.0
		}
		v = Directional(-1, strength, fmt.Sprintf(
			"EPS beat expectations (surprise %+.2f), but about %.0f%% of positive factors are described as temporary. Likely upside overreaction -> bearish.",
			surprise, posTemp*100))
	default:
		v = Neutral(fmt.Sprintf(
			"Temporary vs structural narrative is balanced (EPS surprise=%+.2f, neg_temp=%.0f%%, pos_temp=%.0f%%); no clear asymmetry.",
			surprise, negTemp*100, posTemp*100))
	}

	return types.SingleSignal{Name: NameTempVsStruct, Score: v.Score(), Explanation: v.Reason}
}

// AnalystSkepticism detects a disconnect between analyst questioning and
// the price reaction: a rally met with doubt reads bearish, a selloff met
// with calm reads bullish.
func AnalystSkepticism(features types.SemanticFeatures, day0Return float64) types.SingleSignal {
	skepticism := features.Skepticism.SkepticalQuestionRatio

	var v Verdict
	switch {
	case day0Return > 0.05 && skepticism >= 0.4:
		strength := 0.6
		if day0Return >= 0.10 && skepticism >= 0.6 {
			strength = 1.0
		}
		v = Directional(-1, strength, fmt.Sprintf(
			"The stock jumped %.1f%% on earnings, but about %.0f%% of analyst questions were skeptical. Rally despite doubts -> bearish reversal risk.",
			day0Return*100, skepticism*100))
	case day0Return < -0.05 && skepticism <= 0.2:
		strength := 0.6
		if day0Return <= -0.10 && skepticism <= 0.1 {
			strength = 1.0
		}
		v = Directional(1, strength, fmt.Sprintf(
			"The stock sold off %.1f%% on earnings, but only about %.0f%% of analyst questions were skeptical. Selloff despite calm analysts -> bullish reversal opportunity.",
			day0Return*100, skepticism*100))
	default:
		v = Neutral(fmt.Sprintf(
			"Analyst skepticism is not in clear conflict with the price move (return=%.1f%%, skepticism=%.0f%%).",
			day0Return*100, skepticism*100))
	}

	return types.SingleSignal{Name: NameAnalystSkepticism, Score: v.Score(), Explanation: v.Reason}
}

// CalculateAll runs the five calculators and aggregates the final signal.
// riskHistory is the chronological list of prior events' risk-focus
// scores; it must not contain the current event's own score.
// minRegimeHistory <= 0 selects DefaultMinRegimeHistory.
func CalculateAll(raw types.EarningsRaw, features types.SemanticFeatures, day0Return float64, riskHistory []int, minRegimeHistory int) types.AllSignals {
	all := types.AllSignals{
		ToneNumbers:       ToneNumbersDivergence(features),
		PreparedVsQA:      PreparedVsQAAsymmetry(features, day0Return),
		RegimeShift:       RegimeShift(features.RiskFocusScore, riskHistory, day0Return, minRegimeHistory),
		TempVsStruct:      TempVsStruct(features, raw),
		AnalystSkepticism: AnalystSkepticism(features, day0Return),
	}
	all.FinalSignal = Aggregate(all.Individual())
	return all
}
