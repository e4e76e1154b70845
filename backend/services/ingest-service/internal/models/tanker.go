package models

import "time"

// Tanker is a row of tanker_info.
type Tanker struct {
	ID          int64   `db:"tanker_id" json:"tanker_id"`
	NumberPlate string  `db:"number_plate" json:"number_plate"`
	Name        string  `db:"tanker_name" json:"tanker_name"`
	Status      string  `db:"status" json:"status"`
	Factor      float64 `db:"factor" json:"factor"`
}

// TankerReading is a row of tanker_data.
type TankerReading struct {
	TankerID   int64     `db:"tanker_id" json:"tanker_id"`
	FuelLevel  float64   `db:"fuel_level" json:"fuel_level"`
	Latitude   float64   `db:"latitude" json:"latitude"`
	Longitude  float64   `db:"longitude" json:"longitude"`
	RecordedAt time.Time `db:"timestamp" json:"timestamp"`
}
