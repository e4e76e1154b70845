package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"tankwatch/backend/services/ingest-service/internal/fuel"
)

// levelsDriver answers every query with one fuel_level column holding the rows
// registered for the DSN, in the order the database would return them.
type levelsDriver struct {
	mu   sync.Mutex
	rows map[string][]float64
}

var testDriver = &levelsDriver{rows: map[string][]float64{}}

func init() {
	sql.Register("tanker-levels", testDriver)
}

func (d *levelsDriver) Open(dsn string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &levelsConn{rows: append([]float64(nil), d.rows[dsn]...)}, nil
}

type levelsConn struct{ rows []float64 }

func (c *levelsConn) Prepare(string) (driver.Stmt, error) { return &levelsStmt{rows: c.rows}, nil }
func (c *levelsConn) Close() error                        { return nil }
func (c *levelsConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

type levelsStmt struct{ rows []float64 }

func (s *levelsStmt) Close() error  { return nil }
func (s *levelsStmt) NumInput() int { return -1 }
func (s *levelsStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("not supported")
}
func (s *levelsStmt) Query([]driver.Value) (driver.Rows, error) {
	return &levelsRows{rows: s.rows}, nil
}

type levelsRows struct {
	rows []float64
	pos  int
}

func (r *levelsRows) Columns() []string { return []string{"fuel_level"} }
func (r *levelsRows) Close() error      { return nil }
func (r *levelsRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	dest[0] = r.rows[r.pos]
	r.pos++
	return nil
}

func openLevels(t *testing.T, newestFirst []float64) *sql.DB {
	t.Helper()
	testDriver.mu.Lock()
	testDriver.rows[t.Name()] = newestFirst
	testDriver.mu.Unlock()

	db, err := sql.Open("tanker-levels", t.Name())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestChronological(t *testing.T) {
	cases := []struct {
		in, want []float64
	}{
		{nil, nil},
		{[]float64{1}, []float64{1}},
		{[]float64{3, 2, 1}, []float64{1, 2, 3}},
		{[]float64{40, 30, 20, 10}, []float64{10, 20, 30, 40}},
	}
	for _, tc := range cases {
		if got := chronological(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, got)
		}
	}
}

func TestRecentLevelsReturnsOldestFirst(t *testing.T) {
	// Rows arrive newest first, as ORDER BY timestamp DESC returns them.
	db := openLevels(t, []float64{19, 18, 17, 16, 15, 14, 13, 12, 11, 10})
	repo := NewTankerRepository(db)

	levels, err := repo.RecentLevels(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("recent levels: %v", err)
	}
	want := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	if !reflect.DeepEqual(levels, want) {
		t.Fatalf("expected %v, got %v", want, levels)
	}
	if trend := fuel.ClassifyTrend(levels); trend != fuel.Rising {
		t.Fatalf("filling tank must classify as rising, got %v", trend)
	}
}

func TestRecentLevelsFallingTankIsFalling(t *testing.T) {
	db := openLevels(t, []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19})
	repo := NewTankerRepository(db)

	levels, err := repo.RecentLevels(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("recent levels: %v", err)
	}
	if trend := fuel.ClassifyTrend(levels); trend != fuel.Falling {
		t.Fatalf("draining tank must classify as falling, got %v", trend)
	}
}
