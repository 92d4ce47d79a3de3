// Package dbtest provides an in-memory database migrated with the portal schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"finance_portal/internal/db"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh in-memory SQLite database private to t.
// The pool is limited to one connection so the shared-cache database is never
// locked against itself.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(false))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
