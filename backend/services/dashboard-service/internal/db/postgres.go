package db

import (
	"database/sql"

	libdb "tankwatch/backend/libs/db"
)

// NewPostgres connects to the telemetry database.
func NewPostgres(dsn string) (*sql.DB, error) {
	return libdb.NewPostgresDB(dsn, libdb.PoolOptions{MaxOpenConns: 5, MaxIdleConns: 2})
}
