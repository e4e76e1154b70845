package models

import "time"

// Device identifies a welding machine.
type Device struct {
	ID   int64  `json:"device_id"`
	Name string `json:"device_name"`
}

// DeviceConfig is a machine with its optional thresholds.
type DeviceConfig struct {
	DeviceID     int64    `json:"device_id"`
	MachineName  string   `json:"machine_name"`
	Product      string   `json:"product"`
	OperatorName string   `json:"operator_name"`
	MinVoltage   *float64 `json:"min_voltage"`
	MaxVoltage   *float64 `json:"max_voltage"`
	MinCurrent   *float64 `json:"min_current"`
	MaxCurrent   *float64 `json:"max_current"`
}

// DeviceUpdate replaces machine metadata and thresholds.
type DeviceUpdate struct {
	DeviceID     int64   `json:"device_id"`
	MachineName  string  `json:"machine_name"`
	Product      string  `json:"product"`
	OperatorName string  `json:"operator_name"`
	MinVoltage   float64 `json:"min_voltage"`
	MaxVoltage   float64 `json:"max_voltage"`
	MinCurrent   float64 `json:"min_current"`
	MaxCurrent   float64 `json:"max_current"`
}

// WidgetPoint is a per-minute average of welding telemetry.
type WidgetPoint struct {
	Voltage             float64   `json:"voltage"`
	Current             float64   `json:"current"`
	Timestamp           time.Time `json:"timestamp"`
	MinVoltageThreshold *float64  `json:"min_voltage_threshold"`
	MaxVoltageThreshold *float64  `json:"max_voltage_threshold"`
	MinCurrentThreshold *float64  `json:"min_current_threshold"`
	MaxCurrentThreshold *float64  `json:"max_current_threshold"`
}

// AlertRecord is one stored threshold breach.
type AlertRecord struct {
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	MeasuredValue  float64   `json:"measured_value"`
	ThresholdValue float64   `json:"threshold_value"`
	MachineName    string    `json:"machine_name"`
}
