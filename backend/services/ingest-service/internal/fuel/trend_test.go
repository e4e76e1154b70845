package fuel

import (
	"math"
	"testing"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		want     Trend
	}{
		{name: "empty", readings: nil, want: Flat},
		{name: "shorter than window", readings: []float64{1, 2, 3, 4}, want: Flat},
		{name: "exactly window yields one average", readings: []float64{1, 2, 3, 4, 5}, want: Flat},
		{name: "identical readings", readings: []float64{50, 50, 50, 50, 50, 50, 50, 50}, want: Flat},
		{name: "strictly increasing six", readings: []float64{1, 2, 3, 4, 5, 6}, want: Rising},
		{name: "strictly decreasing six", readings: []float64{6, 5, 4, 3, 2, 1}, want: Falling},
		{name: "strictly increasing ten", readings: []float64{10, 12, 13, 15, 18, 20, 21, 25, 26, 30}, want: Rising},
		{name: "strictly decreasing ten", readings: []float64{300, 290, 281, 270, 260, 255, 240, 230, 221, 210}, want: Falling},
		// averages: 3, 4, 3.6, 4.6 -> 2 up of 3
		{name: "below vote threshold", readings: []float64{1, 2, 3, 4, 5, 6, 0, 8}, want: Flat},
		// averages: 30, 31, 31, 32, 33 -> 3 up of 4
		{name: "exactly at vote threshold", readings: []float64{30, 30, 30, 30, 30, 35, 30, 35, 35}, want: Rising},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.readings); got != tt.want {
				t.Fatalf("ClassifyTrend(%v) = %s, want %s (smoothed %v)", tt.readings, got, tt.want, MovingAverage(tt.readings, SmoothingWindow))
			}
		})
	}
}

func TestMovingAverageRoundsToHundredths(t *testing.T) {
	got := MovingAverage([]float64{100, 102, 98, 105, 110}, 3)
	want := []float64{100, 101.67, 104.33}
	if len(got) != len(want) {
		t.Fatalf("expected %d averages, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("average %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageInvalidWindow(t *testing.T) {
	if got := MovingAverage([]float64{1, 2, 3}, 0); len(got) != 0 {
		t.Fatalf("expected no averages for zero window, got %v", got)
	}
	if got := MovingAverage([]float64{1, 2, 3}, 4); len(got) != 0 {
		t.Fatalf("expected no averages for oversized window, got %v", got)
	}
}

func TestRoundingHidesTinyDifferences(t *testing.T) {
	// averages differ by 0.002 before rounding and tie afterwards
	readings := []float64{10, 10, 10, 10, 10, 10.01, 10.01, 10.01, 10.01, 10.01}
	smoothed := MovingAverage(readings, SmoothingWindow)
	if smoothed[0] != 10 || smoothed[len(smoothed)-1] != 10.01 {
		t.Fatalf("unexpected smoothing %v", smoothed)
	}
	if smoothed[1] != 10 {
		t.Fatalf("expected 10.002 to round to 10, got %v", smoothed[1])
	}
}

func TestRoundHundredths(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 0.125, want: 0.13},
		{in: 1.005, want: 1},
		{in: 2.675, want: 2.67},
		{in: 101.666666, want: 101.67},
		{in: -0.125, want: -0.13},
		{in: 42, want: 42},
	}
	for _, tt := range tests {
		if got := roundHundredths(tt.in); got != tt.want {
			t.Errorf("roundHundredths(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !math.IsNaN(roundHundredths(math.NaN())) {
		t.Error("expected NaN to pass through")
	}
}
