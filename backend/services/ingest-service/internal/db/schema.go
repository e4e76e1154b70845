package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Tables shared by the ingest and dashboard services.
const (
	TankerInfoTableSQL = `
		CREATE TABLE IF NOT EXISTS tanker_info (
			tanker_id    BIGSERIAL PRIMARY KEY,
			number_plate TEXT NOT NULL UNIQUE,
			tanker_name  TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'stable',
			factor       DOUBLE PRECISION NOT NULL DEFAULT 100
		)
	`

	TankerDataTableSQL = `
		CREATE TABLE IF NOT EXISTS tanker_data (
			tanker_id  BIGINT NOT NULL REFERENCES tanker_info (tanker_id),
			fuel_level DOUBLE PRECISION NOT NULL,
			latitude   DOUBLE PRECISION NOT NULL,
			longitude  DOUBLE PRECISION NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	TankerDataIndexSQL = `
		CREATE INDEX IF NOT EXISTS tanker_data_tanker_ts_idx ON tanker_data (tanker_id, timestamp DESC)
	`

	TankerEquationTableSQL = `
		CREATE TABLE IF NOT EXISTS tanker_equation (
			tanker_id   BIGINT NOT NULL REFERENCES tanker_info (tanker_id),
			degree      INTEGER NOT NULL,
			coefficient DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (tanker_id, degree)
		)
	`

	WeldingDevicesTableSQL = `
		CREATE TABLE IF NOT EXISTS welding_devices (
			id            BIGSERIAL PRIMARY KEY,
			machine_name  TEXT NOT NULL,
			product       TEXT,
			operator_name TEXT
		)
	`

	DeviceThresholdsTableSQL = `
		CREATE TABLE IF NOT EXISTS device_thresholds (
			device_id   BIGINT PRIMARY KEY REFERENCES welding_devices (id),
			min_voltage DOUBLE PRECISION NOT NULL,
			max_voltage DOUBLE PRECISION NOT NULL,
			min_current DOUBLE PRECISION NOT NULL,
			max_current DOUBLE PRECISION NOT NULL
		)
	`

	TelemetryDataTableSQL = `
		CREATE TABLE IF NOT EXISTS telemetry_data (
			device_id BIGINT NOT NULL REFERENCES welding_devices (id),
			timestamp TIMESTAMPTZ NOT NULL,
			voltage   DOUBLE PRECISION NOT NULL,
			current   DOUBLE PRECISION NOT NULL
		)
	`

	TelemetryDataIndexSQL = `
		CREATE INDEX IF NOT EXISTS telemetry_data_device_ts_idx ON telemetry_data (device_id, timestamp DESC)
	`

	AlertsTableSQL = `
		CREATE TABLE IF NOT EXISTS alerts (
			id              BIGSERIAL PRIMARY KEY,
			device_id       BIGINT NOT NULL REFERENCES welding_devices (id),
			timestamp       TIMESTAMPTZ NOT NULL,
			type            TEXT NOT NULL,
			measured_value  DOUBLE PRECISION NOT NULL,
			threshold_value DOUBLE PRECISION NOT NULL
		)
	`
)

// Schema lists the statements in dependency order.
var Schema = []string{
	TankerInfoTableSQL,
	TankerDataTableSQL,
	TankerDataIndexSQL,
	TankerEquationTableSQL,
	WeldingDevicesTableSQL,
	DeviceThresholdsTableSQL,
	TelemetryDataTableSQL,
	TelemetryDataIndexSQL,
	AlertsTableSQL,
}

// EnsureSchema creates missing tables and indexes in one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, stmt := range Schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: schema statement %d: %w", i, err)
		}
	}
	return tx.Commit()
}
