package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
	"tankwatch/backend/services/ingest-service/internal/models"
	"tankwatch/backend/services/ingest-service/internal/repository"
)

// TankerRepository is the persistence used by TankerStateStore.
type TankerRepository interface {
	GetByPlate(ctx context.Context, plate string) (*models.Tanker, error)
	Create(ctx context.Context, plate string) (*models.Tanker, error)
	Calibration(ctx context.Context, tankerID int64) (fuel.Calibration, error)
	RecentLevels(ctx context.Context, tankerID int64, limit int) ([]float64, error)
	InsertReading(ctx context.Context, reading *models.TankerReading) error
	UpdateStatus(ctx context.Context, plate string, status fuel.Status) error
}

// CounterStore persists the stable debounce counter.
type CounterStore interface {
	Get(ctx context.Context, plate string) (int, error)
	Set(ctx context.Context, plate string, count int) error
}

// TankerStateStore assembles and persists per-tanker fuel state.
type TankerStateStore struct {
	repo     TankerRepository
	counters CounterStore
	logger   *zap.Logger
}

// NewTankerStateStore builds store. counters may be nil, then the counter starts at 0 on every load.
func NewTankerStateStore(repo TankerRepository, counters CounterStore, logger *zap.Logger) *TankerStateStore {
	return &TankerStateStore{repo: repo, counters: counters, logger: logger}
}

// LoadOrCreate returns the state of a tanker with up to window recent levels, oldest first.
// Unknown plates are registered with default calibration and stable status.
func (s *TankerStateStore) LoadOrCreate(ctx context.Context, plate string, window int) (*fuel.DeviceState, error) {
	tanker, err := s.repo.GetByPlate(ctx, plate)
	if errors.Is(err, repository.ErrTankerNotFound) {
		tanker, err = s.repo.Create(ctx, plate)
		if err != nil {
			return nil, fmt.Errorf("create tanker %s: %w", plate, err)
		}
		s.logger.Info("registered new tanker", zap.String("device", plate), zap.Int64("tanker_id", tanker.ID))
		return fuel.NewDeviceState(tanker.ID, tanker.Name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tanker %s: %w", plate, err)
	}

	state := fuel.NewDeviceState(tanker.ID, tanker.Name)
	status, err := fuel.ParseStatus(tanker.Status)
	if err != nil {
		s.logger.Warn("unknown stored status, treating as stable", zap.String("device", plate), zap.String("status", tanker.Status))
		status = fuel.StatusStable
	}
	state.Status = status
	if tanker.Factor > 0 {
		state.ScaleFactor = tanker.Factor
	}

	cal, err := s.repo.Calibration(ctx, tanker.ID)
	if err != nil {
		return nil, fmt.Errorf("load calibration %s: %w", plate, err)
	}
	if len(cal) > 0 {
		state.Calibration = cal
	}

	levels, err := s.repo.RecentLevels(ctx, tanker.ID, window)
	if err != nil {
		return nil, fmt.Errorf("load readings %s: %w", plate, err)
	}
	state.Readings = levels

	if s.counters != nil {
		count, err := s.counters.Get(ctx, plate)
		if err != nil {
			s.logger.Warn("failed to load stable count", zap.String("device", plate), zap.Error(err))
		} else {
			state.StableCount = count
		}
	}
	return state, nil
}

// InsertReading stores one fuel sample of a loaded tanker.
func (s *TankerStateStore) InsertReading(ctx context.Context, state *fuel.DeviceState, level float64, point fuel.Coordinate) error {
	return s.repo.InsertReading(ctx, &models.TankerReading{
		TankerID:  state.ID,
		FuelLevel: level,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
	})
}

// UpdateStatus persists a tanker status.
func (s *TankerStateStore) UpdateStatus(ctx context.Context, plate string, status fuel.Status) error {
	return s.repo.UpdateStatus(ctx, plate, status)
}

// SaveStableCount persists the debounce counter.
func (s *TankerStateStore) SaveStableCount(ctx context.Context, plate string, count int) error {
	if s.counters == nil {
		return nil
	}
	return s.counters.Set(ctx, plate, count)
}
