package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tankwatch/backend/services/ingest-service/internal/fuel"
	"tankwatch/backend/services/ingest-service/internal/models"
)

// ErrTankerNotFound is returned for unknown number plates.
var ErrTankerNotFound = errors.New("tanker not found")

// TankerRepository reads and writes tanker_info, tanker_data and tanker_equation.
type TankerRepository struct {
	db *sql.DB
}

// NewTankerRepository returns repository.
func NewTankerRepository(db *sql.DB) *TankerRepository {
	return &TankerRepository{db: db}
}

// GetByPlate fetches tanker metadata.
func (r *TankerRepository) GetByPlate(ctx context.Context, plate string) (*models.Tanker, error) {
	const query = `
		SELECT tanker_id, number_plate, tanker_name, COALESCE(status, 'stable'), COALESCE(factor, 100)
		FROM tanker_info
		WHERE number_plate = $1
		LIMIT 1
	`
	var t models.Tanker
	err := r.db.QueryRowContext(ctx, query, plate).Scan(&t.ID, &t.NumberPlate, &t.Name, &t.Status, &t.Factor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTankerNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create registers a tanker named after its plate.
func (r *TankerRepository) Create(ctx context.Context, plate string) (*models.Tanker, error) {
	const query = `
		INSERT INTO tanker_info (number_plate, tanker_name)
		VALUES ($1, $2)
		RETURNING tanker_id, tanker_name
	`
	t := models.Tanker{NumberPlate: plate, Status: string(fuel.StatusStable), Factor: fuel.DefaultScaleFactor}
	if err := r.db.QueryRowContext(ctx, query, plate, plate).Scan(&t.ID, &t.Name); err != nil {
		return nil, err
	}
	return &t, nil
}

// Calibration returns the tank's fitted polynomial. An empty map means no fit is stored.
func (r *TankerRepository) Calibration(ctx context.Context, tankerID int64) (fuel.Calibration, error) {
	const query = `
		SELECT degree, coefficient
		FROM tanker_equation
		WHERE tanker_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, tankerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cal := fuel.Calibration{}
	for rows.Next() {
		var (
			degree      int
			coefficient float64
		)
		if err := rows.Scan(&degree, &coefficient); err != nil {
			return nil, err
		}
		cal[degree] = coefficient
	}
	return cal, rows.Err()
}

// RecentLevels returns up to limit most recent fuel levels, oldest first.
func (r *TankerRepository) RecentLevels(ctx context.Context, tankerID int64, limit int) ([]float64, error) {
	const query = `
		SELECT fuel_level
		FROM tanker_data
		WHERE tanker_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, tankerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make([]float64, 0, limit)
	for rows.Next() {
		var level float64
		if err := rows.Scan(&level); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chronological(levels), nil
}

// chronological reverses newest-first rows in place so the window reads oldest first.
func chronological(levels []float64) []float64 {
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels
}

// InsertReading stores one fuel sample.
func (r *TankerRepository) InsertReading(ctx context.Context, reading *models.TankerReading) error {
	const query = `
		INSERT INTO tanker_data (tanker_id, fuel_level, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING timestamp
	`
	return r.db.QueryRowContext(ctx, query,
		reading.TankerID,
		reading.FuelLevel,
		reading.Latitude,
		reading.Longitude,
	).Scan(&reading.RecordedAt)
}

// UpdateStatus persists the classified status of a tanker.
func (r *TankerRepository) UpdateStatus(ctx context.Context, plate string, status fuel.Status) error {
	const query = `UPDATE tanker_info SET status = $1 WHERE number_plate = $2`
	res, err := r.db.ExecContext(ctx, query, string(status), strings.TrimSpace(plate))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update status %s: %w", plate, ErrTankerNotFound)
	}
	return nil
}
