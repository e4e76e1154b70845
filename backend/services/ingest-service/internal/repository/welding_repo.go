package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tankwatch/backend/services/ingest-service/internal/models"
)

// ErrThresholdsNotFound is returned when a welding machine has no configured limits.
var ErrThresholdsNotFound = errors.New("thresholds not found")

// WeldingRepository persists welding telemetry and threshold alerts.
type WeldingRepository struct {
	db *sql.DB
}

// NewWeldingRepository returns repository.
func NewWeldingRepository(db *sql.DB) *WeldingRepository {
	return &WeldingRepository{db: db}
}

// InsertTelemetry stores one electrical sample.
func (r *WeldingRepository) InsertTelemetry(ctx context.Context, t *models.WeldingTelemetry) error {
	const query = `
		INSERT INTO telemetry_data (device_id, timestamp, voltage, current)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, t.DeviceID, t.RecordedAt, t.Voltage, t.Current)
	return err
}

// Thresholds returns the limits configured for a device.
func (r *WeldingRepository) Thresholds(ctx context.Context, deviceID int64) (*models.Thresholds, error) {
	const query = `
		SELECT min_voltage, max_voltage, min_current, max_current
		FROM device_thresholds
		WHERE device_id = $1
	`
	var th models.Thresholds
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&th.MinVoltage, &th.MaxVoltage, &th.MinCurrent, &th.MaxCurrent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrThresholdsNotFound
		}
		return nil, err
	}
	return &th, nil
}

// InsertAlerts records threshold breaches in a single transaction.
func (r *WeldingRepository) InsertAlerts(ctx context.Context, deviceID int64, at time.Time, alerts []models.WeldingAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO alerts (device_id, timestamp, type, measured_value, threshold_value)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx, query, deviceID, at, string(a.Type), a.Measured, a.Threshold); err != nil {
			return err
		}
	}
	return tx.Commit()
}
