package models

import "time"

// WeldingTelemetry is a row of telemetry_data.
type WeldingTelemetry struct {
	DeviceID   int64     `db:"device_id" json:"device_id"`
	Voltage    float64   `db:"voltage" json:"voltage"`
	Current    float64   `db:"current" json:"current"`
	RecordedAt time.Time `db:"timestamp" json:"timestamp"`
}

// Thresholds are the allowed electrical ranges of a welding machine.
type Thresholds struct {
	MinVoltage float64 `db:"min_voltage" json:"min_voltage"`
	MaxVoltage float64 `db:"max_voltage" json:"max_voltage"`
	MinCurrent float64 `db:"min_current" json:"min_current"`
	MaxCurrent float64 `db:"max_current" json:"max_current"`
}

// WeldingAlertType names a threshold breach.
type WeldingAlertType string

const (
	AlertUnderVoltage WeldingAlertType = "under_voltage"
	AlertOverVoltage  WeldingAlertType = "over_voltage"
	AlertUnderCurrent WeldingAlertType = "under_current"
	AlertOverCurrent  WeldingAlertType = "over_current"
)

// WeldingAlert is a row of alerts.
type WeldingAlert struct {
	Type      WeldingAlertType `db:"type" json:"type"`
	Measured  float64          `db:"measured_value" json:"measured"`
	Threshold float64          `db:"threshold_value" json:"threshold"`
}
