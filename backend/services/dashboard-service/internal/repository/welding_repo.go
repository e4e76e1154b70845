package repository

import (
	"context"
	"database/sql"
	"errors"

	"tankwatch/backend/services/dashboard-service/internal/models"
)

// ErrDeviceNotFound is returned when an update targets an unknown machine.
var ErrDeviceNotFound = errors.New("device not found")

// WeldingRepository serves dashboard reads and admin updates.
type WeldingRepository struct {
	db *sql.DB
}

// NewWeldingRepository returns repository.
func NewWeldingRepository(db *sql.DB) *WeldingRepository {
	return &WeldingRepository{db: db}
}

// ListDevices returns every welding machine.
func (r *WeldingRepository) ListDevices(ctx context.Context) ([]models.Device, error) {
	const query = `SELECT id, machine_name FROM welding_devices ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []models.Device{}
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// DeviceConfigs returns machines joined with their thresholds, by name.
func (r *WeldingRepository) DeviceConfigs(ctx context.Context) ([]models.DeviceConfig, error) {
	const query = `
		SELECT wd.id, wd.machine_name, COALESCE(wd.product, ''), COALESCE(wd.operator_name, ''),
			dt.min_voltage, dt.max_voltage, dt.min_current, dt.max_current
		FROM welding_devices wd
		LEFT JOIN device_thresholds dt ON dt.device_id = wd.id
		ORDER BY wd.machine_name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []models.DeviceConfig{}
	for rows.Next() {
		var (
			c          models.DeviceConfig
			minV, maxV sql.NullFloat64
			minC, maxC sql.NullFloat64
		)
		if err := rows.Scan(&c.DeviceID, &c.MachineName, &c.Product, &c.OperatorName, &minV, &maxV, &minC, &maxC); err != nil {
			return nil, err
		}
		c.MinVoltage = nullable(minV)
		c.MaxVoltage = nullable(maxV)
		c.MinCurrent = nullable(minC)
		c.MaxCurrent = nullable(maxC)
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// UpdateDevice writes metadata and thresholds atomically. Thresholds are created when missing.
func (r *WeldingRepository) UpdateDevice(ctx context.Context, u models.DeviceUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE welding_devices
		SET machine_name = $1, product = $2, operator_name = $3
		WHERE id = $4
	`, u.MachineName, u.Product, u.OperatorName, u.DeviceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeviceNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO device_thresholds (device_id, min_voltage, max_voltage, min_current, max_current)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE
		SET min_voltage = EXCLUDED.min_voltage,
			max_voltage = EXCLUDED.max_voltage,
			min_current = EXCLUDED.min_current,
			max_current = EXCLUDED.max_current
	`, u.DeviceID, u.MinVoltage, u.MaxVoltage, u.MinCurrent, u.MaxCurrent); err != nil {
		return err
	}

	return tx.Commit()
}

// WidgetData returns per-minute averages since now minus interval, newest first.
// interval must be a Postgres interval literal such as "1 hour".
func (r *WeldingRepository) WidgetData(ctx context.Context, deviceID int64, interval string) ([]models.WidgetPoint, error) {
	const query = `
		SELECT
			ROUND(AVG(td.voltage)::numeric, 2)::float8,
			ROUND(AVG(td.current)::numeric, 2)::float8,
			DATE_TRUNC('minute', td.timestamp) AS minute,
			MAX(dt.min_voltage), MAX(dt.max_voltage), MAX(dt.min_current), MAX(dt.max_current)
		FROM welding_devices wd
		JOIN telemetry_data td ON td.device_id = wd.id
		LEFT JOIN device_thresholds dt ON dt.device_id = wd.id
		WHERE wd.id = $1 AND td.timestamp >= NOW() - $2::interval
		GROUP BY minute
		ORDER BY minute DESC
	`
	rows, err := r.db.QueryContext(ctx, query, deviceID, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []models.WidgetPoint{}
	for rows.Next() {
		var (
			p          models.WidgetPoint
			minV, maxV sql.NullFloat64
			minC, maxC sql.NullFloat64
		)
		if err := rows.Scan(&p.Voltage, &p.Current, &p.Timestamp, &minV, &maxV, &minC, &maxC); err != nil {
			return nil, err
		}
		p.MinVoltageThreshold = nullable(minV)
		p.MaxVoltageThreshold = nullable(maxV)
		p.MinCurrentThreshold = nullable(minC)
		p.MaxCurrentThreshold = nullable(maxC)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Records returns alert history newest first. A zero deviceID selects every device.
func (r *WeldingRepository) Records(ctx context.Context, deviceID int64) ([]models.AlertRecord, error) {
	query := `
		SELECT a.type, a.timestamp, a.measured_value, a.threshold_value, wd.machine_name
		FROM alerts a
		JOIN welding_devices wd ON a.device_id = wd.id
	`
	var args []interface{}
	if deviceID != 0 {
		query += ` WHERE a.device_id = $1`
		args = append(args, deviceID)
	}
	query += ` ORDER BY a.timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.AlertRecord{}
	for rows.Next() {
		var rec models.AlertRecord
		if err := rows.Scan(&rec.Type, &rec.Timestamp, &rec.MeasuredValue, &rec.ThresholdValue, &rec.MachineName); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
