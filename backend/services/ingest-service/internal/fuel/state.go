package fuel

import "fmt"

// Status is the debounced classification persisted for a tanker.
type Status string

const (
	StatusStable Status = "stable"
	StatusRise   Status = "rise"
	StatusLeak   Status = "leak"
	StatusDrain  Status = "drain"
)

// ParseStatus maps a stored status string to a Status. Empty values mean stable.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case "":
		return StatusStable, nil
	case StatusStable, StatusRise, StatusLeak, StatusDrain:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("fuel: unknown status %q", raw)
	}
}

// Calibration maps polynomial degree to coefficient for a tank's volume curve.
type Calibration map[int]float64

// DefaultCalibration is the fallback cubic used until a tank gets its own fit.
func DefaultCalibration() Calibration {
	return Calibration{
		0: -162.31254432306943,
		1: 4.150072958151474,
		2: 0.009927196796148,
		3: -0.000005744628532,
	}
}

// DefaultScaleFactor is stored for new tankers.
const DefaultScaleFactor = 100.0

// DeviceState is the full per-tanker snapshot the engine works on.
// Readings are chronological: the most recent level is the last element.
type DeviceState struct {
	ID          int64
	Name        string
	Readings    []float64
	Status      Status
	StableCount int
	Calibration Calibration
	ScaleFactor float64
}

// NewDeviceState returns the initial state of a tanker seen for the first time.
func NewDeviceState(id int64, name string) *DeviceState {
	return &DeviceState{
		ID:          id,
		Name:        name,
		Readings:    []float64{},
		Status:      StatusStable,
		Calibration: DefaultCalibration(),
		ScaleFactor: DefaultScaleFactor,
	}
}

// Append adds a reading and keeps at most window entries.
func (s *DeviceState) Append(level float64, window int) {
	s.Readings = append(s.Readings, level)
	if window > 0 && len(s.Readings) > window {
		s.Readings = s.Readings[len(s.Readings)-window:]
	}
}

// Latest returns the most recent reading.
func (s *DeviceState) Latest() (float64, bool) {
	if len(s.Readings) == 0 {
		return 0, false
	}
	return s.Readings[len(s.Readings)-1], true
}
