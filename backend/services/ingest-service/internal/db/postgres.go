package db

import (
	"database/sql"

	libdb "tankwatch/backend/libs/db"
)

// NewPostgres connects to the telemetry database using the shared pool helper.
func NewPostgres(dsn string, maxOpenConns int) (*sql.DB, error) {
	return libdb.NewPostgresDB(dsn, libdb.PoolOptions{MaxOpenConns: maxOpenConns})
}
