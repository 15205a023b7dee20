// Package drivertest opens throwaway databases for package tests
package drivertest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
)

// NewSQLite returns a migrated SQLite database in a temp dir, closed when the test ends
func NewSQLite(t testing.TB) driver.ITransactionalDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wellbeing.db")
	conn, err := driver.NewSQLiteConn(path, &driver.DBConfig{Driver: driver.DriverSQLite, Schema: path})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close(context.Background()) })

	if err := driver.Migrate(context.Background(), conn, driver.DriverSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}
