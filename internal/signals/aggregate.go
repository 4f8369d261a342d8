package signals

import (
	"fmt"
	"strings"

	"earnings-reversal/internal/types"
)

// Aggregate combines individual signals into the final trading signal.
//
// Each sub-signal score maps to a signed value in [-1,1] via
// (score-5)/5; the signed values are summed and re-centered:
// final = clamp(5 + sum, 0, 10). The explanation names which signals
// were bullish (> 5.5) and bearish (< 4.5).
func Aggregate(individual []types.SingleSignal) types.SingleSignal {
	if len(individual) == 0 {
		return types.SingleSignal{
			Name:        NameFinal,
			Score:       BaseScore,
			Explanation: "No valid semantic signals available.",
		}
	}

	var rawSum float64
	var bullish, bearish []string
	for _, s := range individual {
		rawSum += (s.Score - BaseScore) / BaseScore
		if s.Score > BullishThreshold {
			bullish = append(bullish, s.Name)
		} else if s.Score < BearishThreshold {
			bearish = append(bearish, s.Name)
		}
	}

	final := clamp(BaseScore+rawSum, 0, 10)

	direction := "neutral"
	if final > BullishThreshold {
		direction = "bullish"
	} else if final < BearishThreshold {
		direction = "bearish"
	}

	head := fmt.Sprintf("Aggregate semantic score is %.1f (%s); raw sum = %+.2f. ", final, direction, rawSum)

	var tail string
	switch {
	case len(bullish) > 0 && len(bearish) > 0:
		tail = fmt.Sprintf("Bullish: %s. Bearish: %s.", strings.Join(bullish, ", "), strings.Join(bearish, ", "))
	case len(bullish) > 0:
		tail = fmt.Sprintf("Bullish signals: %s.", strings.Join(bullish, ", "))
	case len(bearish) > 0:
		tail = fmt.Sprintf("Bearish signals: %s.", strings.Join(bearish, ", "))
	default:
		tail = "No strong individual signals."
	}

	return types.SingleSignal{Name: NameFinal, Score: final, Explanation: head + tail}
}
