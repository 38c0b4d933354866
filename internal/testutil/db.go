// Package testutil holds helpers shared by tests of several packages
package testutil

import (
	"testing"

	"bitwise74/contacts-api/db"

	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database. A single
// connection is used so every query sees the same memory database
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	d, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return d
}
