package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
)

var (
	// ErrInvalidReading is returned for readings rejected before any state is touched.
	ErrInvalidReading = errors.New("invalid tanker reading")
)

// Analyzer runs the fuel alert state machine.
type Analyzer interface {
	Analyze(ctx context.Context, deviceKey string, point fuel.Coordinate, state *fuel.DeviceState, ch fuel.Channel) (fuel.Transition, bool)
}

// ChannelSource resolves the live push target of a device. It returns nil when nobody listens.
type ChannelSource interface {
	Channel(device string) fuel.Channel
}

// TankerReading is one sample reported by a tanker.
type TankerReading struct {
	NumberPlate string
	Fuel        float64
	Point       fuel.Coordinate
}

// TankerResult describes the outcome of an ingested reading.
type TankerResult struct {
	NumberPlate string      `json:"number_plate"`
	Status      fuel.Status `json:"tanker_status"`
	Changed     bool        `json:"changed"`
	StableCount int         `json:"stable_count"`
}

// TankerService runs the ingest pipeline for tanker readings.
type TankerService struct {
	store    *TankerStateStore
	analyzer Analyzer
	channels []ChannelSource
	window   int
	locks    *deviceLocks
	logger   *zap.Logger
}

// NewTankerService builds service. window is how many recent readings feed the trend.
func NewTankerService(store *TankerStateStore, analyzer Analyzer, window int, logger *zap.Logger, channels ...ChannelSource) *TankerService {
	if window <= fuel.SmoothingWindow {
		window = fuel.SmoothingWindow + 1
	}
	return &TankerService{
		store:    store,
		analyzer: analyzer,
		channels: channels,
		window:   window,
		locks:    newDeviceLocks(),
		logger:   logger,
	}
}

// Ingest stores a reading and feeds the updated window to the analyzer.
// Readings of the same tanker are processed one at a time.
func (s *TankerService) Ingest(ctx context.Context, in TankerReading) (*TankerResult, error) {
	plate := strings.TrimSpace(in.NumberPlate)
	if plate == "" || !finite(in.Fuel) || !finite(in.Point.Latitude) || !finite(in.Point.Longitude) {
		return nil, ErrInvalidReading
	}

	unlock := s.locks.Lock(plate)
	defer unlock()

	state, err := s.store.LoadOrCreate(ctx, plate, s.window-1)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertReading(ctx, state, in.Fuel, in.Point); err != nil {
		return nil, err
	}
	state.Append(in.Fuel, s.window)

	_, changed := s.analyzer.Analyze(ctx, plate, in.Point, state, s.channel(plate))

	if err := s.store.SaveStableCount(ctx, plate, state.StableCount); err != nil {
		s.logger.Warn("failed to save stable count", zap.String("device", plate), zap.Error(err))
	}

	return &TankerResult{
		NumberPlate: plate,
		Status:      state.Status,
		Changed:     changed,
		StableCount: state.StableCount,
	}, nil
}

func (s *TankerService) channel(plate string) fuel.Channel {
	var targets []fuel.Channel
	for _, src := range s.channels {
		if ch := src.Channel(plate); ch != nil {
			targets = append(targets, ch)
		}
	}
	switch len(targets) {
	case 0:
		return nil
	case 1:
		return targets[0]
	default:
		return fanout(targets)
	}
}

type fanout []fuel.Channel

func (f fanout) Emit(event string, payload interface{}) error {
	var errs []error
	for _, ch := range f {
		if err := ch.Emit(event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
