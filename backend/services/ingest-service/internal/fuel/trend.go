package fuel

import (
	"math"
	"math/big"
)

// Trend is the short-term direction of a reading window.
type Trend int

const (
	Falling Trend = -1
	Flat    Trend = 0
	Rising  Trend = 1
)

func (t Trend) String() string {
	switch t {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "flat"
	}
}

const (
	// SmoothingWindow is the moving average width applied before voting.
	SmoothingWindow = 5
	// TrendVotePercent is the share of up (or down) steps needed to call a direction.
	TrendVotePercent = 75.0
)

// MovingAverage returns the simple moving averages of data, each rounded to two decimals.
// It returns an empty slice when the window does not fit.
func MovingAverage(data []float64, window int) []float64 {
	if window <= 0 || window > len(data) {
		return []float64{}
	}
	averages := make([]float64, 0, len(data)-window+1)
	for i := window - 1; i < len(data); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += data[j]
		}
		averages = append(averages, roundHundredths(sum/float64(window)))
	}
	return averages
}

// ClassifyTrend smooths chronological readings and votes on the direction of consecutive
// averages. Ties vote for neither side. Fewer than SmoothingWindow+1 readings is Flat.
func ClassifyTrend(readings []float64) Trend {
	smoothed := MovingAverage(readings, SmoothingWindow)

	var up, down int
	for i := 1; i < len(smoothed); i++ {
		switch {
		case smoothed[i] > smoothed[i-1]:
			up++
		case smoothed[i] < smoothed[i-1]:
			down++
		}
	}

	total := len(smoothed) - 1
	if total <= 0 {
		return Flat
	}

	upPct := float64(up) / float64(total) * 100
	downPct := float64(down) / float64(total) * 100
	if upPct >= TrendVotePercent {
		return Rising
	}
	if downPct >= TrendVotePercent {
		return Falling
	}
	return Flat
}

var half = big.NewRat(1, 2)

// roundHundredths rounds the exact binary value of x to two decimals, ties away from zero.
// Scaling by 100 in floating point first would move some values across the tie.
func roundHundredths(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	neg := x < 0
	r := new(big.Rat).SetFloat64(math.Abs(x))
	r.Mul(r, big.NewRat(100, 1))

	n := new(big.Int).Quo(r.Num(), r.Denom())
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(n))
	if frac.Cmp(half) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	f, _ := new(big.Rat).SetFrac(n, big.NewInt(100)).Float64()
	if neg {
		return -f
	}
	return f
}
