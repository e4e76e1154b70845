package fuel

import (
	"math"
	"sort"
)

// ComputeVolume evaluates the calibration polynomial at level. Degrees are summed in
// ascending order so results are reproducible.
func ComputeVolume(calibration Calibration, level float64) float64 {
	degrees := make([]int, 0, len(calibration))
	for d := range calibration {
		degrees = append(degrees, d)
	}
	sort.Ints(degrees)

	var volume float64
	for _, d := range degrees {
		volume += calibration[d] * math.Pow(level, float64(d))
	}
	return volume
}
