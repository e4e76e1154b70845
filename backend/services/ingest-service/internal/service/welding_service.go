package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/models"
)

// DeviceDataEvent is the live event carrying a welding sample.
const DeviceDataEvent = "device_data"

// WeldingRepository is the persistence used by WeldingService.
type WeldingRepository interface {
	InsertTelemetry(ctx context.Context, t *models.WeldingTelemetry) error
	Thresholds(ctx context.Context, deviceID int64) (*models.Thresholds, error)
	InsertAlerts(ctx context.Context, deviceID int64, at time.Time, alerts []models.WeldingAlert) error
}

// Broadcaster pushes an event to live listeners of a device.
type Broadcaster interface {
	Broadcast(device, event string, payload interface{}) error
}

// WeldingSample is one electrical reading.
type WeldingSample struct {
	DeviceID int64
	Voltage  float64
	Current  float64
}

// WeldingService ingests welding machine telemetry and raises threshold alerts.
type WeldingService struct {
	repo   WeldingRepository
	live   Broadcaster
	now    func() time.Time
	logger *zap.Logger
}

// NewWeldingService builds service. live may be nil.
func NewWeldingService(repo WeldingRepository, live Broadcaster, logger *zap.Logger) *WeldingService {
	return &WeldingService{repo: repo, live: live, now: time.Now, logger: logger}
}

// Ingest stores the sample, then evaluates it against the device thresholds.
// The sample is kept even when no thresholds exist; repository.ErrThresholdsNotFound is returned then.
func (s *WeldingService) Ingest(ctx context.Context, sample WeldingSample) ([]models.WeldingAlert, error) {
	t := &models.WeldingTelemetry{
		DeviceID:   sample.DeviceID,
		Voltage:    sample.Voltage,
		Current:    sample.Current,
		RecordedAt: s.now().UTC(),
	}
	if err := s.repo.InsertTelemetry(ctx, t); err != nil {
		return nil, err
	}

	th, err := s.repo.Thresholds(ctx, sample.DeviceID)
	if err != nil {
		return nil, err
	}

	alerts := EvaluateThresholds(*th, sample.Voltage, sample.Current)
	if err := s.repo.InsertAlerts(ctx, sample.DeviceID, t.RecordedAt, alerts); err != nil {
		return nil, err
	}
	if len(alerts) > 0 {
		s.logger.Info("welding thresholds breached", zap.Int64("device_id", sample.DeviceID), zap.Int("alerts", len(alerts)))
	}

	if s.live != nil {
		payload := map[string]interface{}{
			"device_id": sample.DeviceID,
			"voltage":   sample.Voltage,
			"current":   sample.Current,
			"timestamp": t.RecordedAt,
			"alerts":    alerts,
		}
		if err := s.live.Broadcast(deviceKey(sample.DeviceID), DeviceDataEvent, payload); err != nil {
			s.logger.Warn("failed to push welding data", zap.Int64("device_id", sample.DeviceID), zap.Error(err))
		}
	}
	return alerts, nil
}

// EvaluateThresholds returns the breaches of a sample, voltage checks first.
// Values equal to a limit are within range. Each pair yields at most one alert,
// the under check winning when a limit row has min above max.
func EvaluateThresholds(th models.Thresholds, voltage, current float64) []models.WeldingAlert {
	alerts := []models.WeldingAlert{}
	if voltage < th.MinVoltage {
		alerts = append(alerts, models.WeldingAlert{Type: models.AlertUnderVoltage, Measured: voltage, Threshold: th.MinVoltage})
	} else if voltage > th.MaxVoltage {
		alerts = append(alerts, models.WeldingAlert{Type: models.AlertOverVoltage, Measured: voltage, Threshold: th.MaxVoltage})
	}
	if current < th.MinCurrent {
		alerts = append(alerts, models.WeldingAlert{Type: models.AlertUnderCurrent, Measured: current, Threshold: th.MinCurrent})
	} else if current > th.MaxCurrent {
		alerts = append(alerts, models.WeldingAlert{Type: models.AlertOverCurrent, Measured: current, Threshold: th.MaxCurrent})
	}
	return alerts
}

func deviceKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
