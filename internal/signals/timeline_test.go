package signals

import (
	"fmt"
	"math"
	"testing"

	"earnings-reversal/internal/types"
)

func bar(date string, close float64) types.PriceBar {
	return types.PriceBar{Date: date, Open: close, High: close, Low: close, Close: close}
}

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDay0ReturnBMO(t *testing.T) {
	prices := []types.PriceBar{bar("2024-01-08", 100), bar("2024-01-09", 105)}

	r := Day0Return(prices, "2024-01-09", types.CallTimeBMO)
	if r == nil {
		t.Fatal("expected a Day 0 return, got nil")
	}
	if !approxEqual(*r, 0.05) {
		t.Errorf("BMO day0 return = %v, want 0.05", *r)
	}
}

func TestDay0ReturnUnknownMatchesBMO(t *testing.T) {
	prices := []types.PriceBar{bar("2024-01-08", 100), bar("2024-01-09", 105)}

	bmo := Day0Return(prices, "2024-01-09", types.CallTimeBMO)
	unknown := Day0Return(prices, "2024-01-09", types.CallTimeUnknown)
	if bmo == nil || unknown == nil || *bmo != *unknown {
		t.Errorf("unknown call time should behave like BMO: bmo=%v unknown=%v", bmo, unknown)
	}
}

func TestDay0ReturnAMC(t *testing.T) {
	prices := []types.PriceBar{bar("2024-01-09", 100), bar("2024-01-10", 108)}

	r := Day0Return(prices, "2024-01-09", types.CallTimeAMC)
	if r == nil {
		t.Fatal("expected a Day 0 return, got nil")
	}
	if !approxEqual(*r, 0.08) {
		t.Errorf("AMC day0 return = %v, want 0.08", *r)
	}
}

func TestDay0ReturnMissingPriorBar(t *testing.T) {
	// No bar before the event date in BMO mode.
	prices := []types.PriceBar{bar("2024-01-09", 105), bar("2024-01-10", 106)}
	if r := Day0Return(prices, "2024-01-09", types.CallTimeBMO); r != nil {
		t.Errorf("expected nil without a prior bar, got %v", *r)
	}
}

func TestDay0ReturnAMCMissingNextBar(t *testing.T) {
	// AMC needs the bar after the event date.
	prices := []types.PriceBar{bar("2024-01-08", 100), bar("2024-01-09", 105)}
	if r := Day0Return(prices, "2024-01-09", types.CallTimeAMC); r != nil {
		t.Errorf("expected nil without a next bar, got %v", *r)
	}
}

func TestDay0ReturnNonPositiveClose(t *testing.T) {
	prices := []types.PriceBar{bar("2024-01-08", 0), bar("2024-01-09", 105)}
	if r := Day0Return(prices, "2024-01-09", types.CallTimeBMO); r != nil {
		t.Errorf("expected nil for non-positive prior close, got %v", *r)
	}
}

// syntheticSeries builds n consecutive bars starting at startClose and
// rising by one each day.
func syntheticSeries(n int, startClose float64) []types.PriceBar {
	out := make([]types.PriceBar, n)
	for i := range out {
		out[i] = bar(fmt.Sprintf("2024-03-%02d", i+1), startClose+float64(i))
	}
	return out
}

func TestForwardReturnsBMO(t *testing.T) {
	prices := syntheticSeries(15, 100) // closes 100..114 on 2024-03-01..15

	frs := ForwardReturns(prices, "2024-03-02", 8.0, types.CallTimeBMO, []int{5, 10})
	if len(frs) != 2 {
		t.Fatalf("expected 2 horizons, got %d", len(frs))
	}

	// T0 is 03-02 (close 101); T+5 is 03-07 (close 106).
	if frs[0].Horizon != 5 || frs[0].StartDate != "2024-03-02" || frs[0].EndDate != "2024-03-07" {
		t.Errorf("horizon 5 window = %+v", frs[0])
	}
	if !approxEqual(frs[0].ReturnPct, 5.0/101.0) {
		t.Errorf("horizon 5 return = %v, want %v", frs[0].ReturnPct, 5.0/101.0)
	}
	if frs[0].Hit == nil || !*frs[0].Hit {
		t.Errorf("bullish signal with positive return should be a hit: %+v", frs[0])
	}
}

func TestForwardReturnsAMCShiftsT0(t *testing.T) {
	prices := syntheticSeries(15, 100)

	frs := ForwardReturns(prices, "2024-03-02", 8.0, types.CallTimeAMC, []int{5})
	if len(frs) != 1 {
		t.Fatalf("expected 1 horizon, got %d", len(frs))
	}
	if frs[0].StartDate != "2024-03-03" || frs[0].EndDate != "2024-03-08" {
		t.Errorf("AMC window = %s..%s, want 2024-03-03..2024-03-08", frs[0].StartDate, frs[0].EndDate)
	}
}

func TestForwardReturnsSkipsTruncatedHorizon(t *testing.T) {
	// Only 3 bars after T0: horizon 5 must be absent, not an error.
	prices := syntheticSeries(4, 100)

	frs := ForwardReturns(prices, "2024-03-01", 8.0, types.CallTimeBMO, []int{5})
	if len(frs) != 0 {
		t.Errorf("expected no horizons with only 3 future bars, got %+v", frs)
	}
}

func TestForwardReturnsNeutralZoneTakesNoTrade(t *testing.T) {
	prices := syntheticSeries(15, 100)

	for _, score := range []float64{4.5, 5.0, 5.5} {
		frs := ForwardReturns(prices, "2024-03-02", score, types.CallTimeBMO, []int{5})
		if len(frs) != 1 {
			t.Fatalf("score %v: expected 1 horizon, got %d", score, len(frs))
		}
		if frs[0].Hit != nil {
			t.Errorf("score %v: neutral zone should leave hit unset, got %v", score, *frs[0].Hit)
		}
	}
}

func TestForwardReturnsBearishHit(t *testing.T) {
	// Falling series: bearish signal should register hits.
	prices := make([]types.PriceBar, 12)
	for i := range prices {
		prices[i] = bar(fmt.Sprintf("2024-03-%02d", i+1), 100-float64(i))
	}

	frs := ForwardReturns(prices, "2024-03-02", 2.0, types.CallTimeBMO, []int{5})
	if len(frs) != 1 {
		t.Fatalf("expected 1 horizon, got %d", len(frs))
	}
	if frs[0].Hit == nil || !*frs[0].Hit {
		t.Errorf("bearish signal with negative return should be a hit: %+v", frs[0])
	}

	// Same series, bullish signal: a miss.
	frs = ForwardReturns(prices, "2024-03-02", 8.0, types.CallTimeBMO, []int{5})
	if frs[0].Hit == nil || *frs[0].Hit {
		t.Errorf("bullish signal with negative return should be a miss: %+v", frs[0])
	}
}

func TestForwardReturnsEventBeyondSeries(t *testing.T) {
	prices := syntheticSeries(5, 100)
	if frs := ForwardReturns(prices, "2024-06-01", 8.0, types.CallTimeBMO, nil); len(frs) != 0 {
		t.Errorf("expected no returns for event past the series, got %+v", frs)
	}
}

func TestIndexLookups(t *testing.T) {
	prices := []types.PriceBar{bar("2024-01-02", 1), bar("2024-01-03", 1), bar("2024-01-05", 1)}

	if got := firstOnOrAfter(prices, "2024-01-04"); got != 2 {
		t.Errorf("firstOnOrAfter(01-04) = %d, want 2", got)
	}
	if got := firstOnOrAfter(prices, "2024-01-06"); got != -1 {
		t.Errorf("firstOnOrAfter(01-06) = %d, want -1", got)
	}
	if got := lastBefore(prices, "2024-01-04"); got != 1 {
		t.Errorf("lastBefore(01-04) = %d, want 1", got)
	}
	if got := lastBefore(prices, "2024-01-02"); got != -1 {
		t.Errorf("lastBefore(01-02) = %d, want -1", got)
	}
}
