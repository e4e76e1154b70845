package fuel

import (
	"math"
	"testing"
)

func TestComputeVolume(t *testing.T) {
	if got := ComputeVolume(Calibration{0: 1, 1: 2}, 3); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
	if got := ComputeVolume(Calibration{2: 1}, 4); got != 16 {
		t.Fatalf("missing lower degrees should contribute nothing, got %v", got)
	}
	if got := ComputeVolume(Calibration{}, 10); got != 0 {
		t.Fatalf("empty calibration should give 0, got %v", got)
	}
}

func TestComputeVolumeDefaultCalibration(t *testing.T) {
	cal := DefaultCalibration()
	level := 100.0
	want := cal[0] + cal[1]*level + cal[2]*level*level + cal[3]*level*level*level
	if got := ComputeVolume(cal, level); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestComputeVolumePropagatesNaN(t *testing.T) {
	if got := ComputeVolume(Calibration{0: 1, 1: 1}, math.NaN()); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}
