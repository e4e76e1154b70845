package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tankwatch/backend/services/dashboard-service/internal/models"
)

var (
	// ErrInvalidRange is returned for widget ranges outside the whitelist.
	ErrInvalidRange = errors.New("dashboard: invalid range")
	// ErrNoData is returned when a widget query matches nothing.
	ErrNoData = errors.New("dashboard: no data for this device in this range")
	// ErrInvalidUpdate is returned for inconsistent device updates.
	ErrInvalidUpdate = errors.New("dashboard: invalid device update")
)

// ranges maps accepted widget ranges to Postgres intervals.
var ranges = map[string]string{
	"minute": "1 minute",
	"hour":   "1 hour",
	"day":    "1 day",
	"week":   "1 week",
	"month":  "1 month",
	"year":   "1 year",
}

// DeviceRepository is the storage used by DashboardService.
type DeviceRepository interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	DeviceConfigs(ctx context.Context) ([]models.DeviceConfig, error)
	UpdateDevice(ctx context.Context, u models.DeviceUpdate) error
	WidgetData(ctx context.Context, deviceID int64, interval string) ([]models.WidgetPoint, error)
	Records(ctx context.Context, deviceID int64) ([]models.AlertRecord, error)
}

// DashboardService serves welding machine views.
type DashboardService struct {
	repo DeviceRepository
}

// NewDashboardService builds service.
func NewDashboardService(repo DeviceRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// Devices lists machines.
func (s *DashboardService) Devices(ctx context.Context) ([]models.Device, error) {
	return s.repo.ListDevices(ctx)
}

// DeviceConfigs lists machines with thresholds for the admin panel.
func (s *DashboardService) DeviceConfigs(ctx context.Context) ([]models.DeviceConfig, error) {
	return s.repo.DeviceConfigs(ctx)
}

// WidgetData returns per-minute averages over the last range.
func (s *DashboardService) WidgetData(ctx context.Context, deviceID int64, rangeName string) ([]models.WidgetPoint, error) {
	interval, ok := ranges[strings.ToLower(strings.TrimSpace(rangeName))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, rangeName)
	}
	points, err := s.repo.WidgetData(ctx, deviceID, interval)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return points, nil
}

// Records returns alert history; zero deviceID means all devices.
func (s *DashboardService) Records(ctx context.Context, deviceID int64) ([]models.AlertRecord, error) {
	return s.repo.Records(ctx, deviceID)
}

// UpdateDevice validates and stores machine metadata with thresholds.
func (s *DashboardService) UpdateDevice(ctx context.Context, u models.DeviceUpdate) error {
	u.MachineName = strings.TrimSpace(u.MachineName)
	switch {
	case u.DeviceID <= 0:
		return fmt.Errorf("%w: device_id is required", ErrInvalidUpdate)
	case u.MachineName == "":
		return fmt.Errorf("%w: machine_name is required", ErrInvalidUpdate)
	case u.MinVoltage > u.MaxVoltage:
		return fmt.Errorf("%w: min_voltage exceeds max_voltage", ErrInvalidUpdate)
	case u.MinCurrent > u.MaxCurrent:
		return fmt.Errorf("%w: min_current exceeds max_current", ErrInvalidUpdate)
	}
	return s.repo.UpdateDevice(ctx, u)
}
