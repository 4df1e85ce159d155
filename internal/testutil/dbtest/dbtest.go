// Package dbtest opens a migrated in-memory SQLite database for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/domain/member"
	"sacco-backend/pkg/id"
)

// Open returns a fresh schema. One connection only: each :memory: connection is its own database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, ":memory:", 1)
}

// OpenConcurrent returns a file-backed schema with several pooled connections,
// so goroutines hold real concurrent transactions. SQLite has no row locks:
// BEGIN IMMEDIATE serializes writers and busy_timeout makes the others wait.
func OpenConcurrent(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sacco.db")
	return open(t, "file:"+path+"?_journal_mode=WAL&_txlock=immediate&_busy_timeout=10000", 8)
}

func open(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gormdb.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// Member inserts an active member with the given role and returns its id.
func Member(t *testing.T, db *gorm.DB, role member.Role) string {
	t.Helper()
	m := &member.Member{
		MemberID:    id.NewID32(),
		FullName:    "Test " + string(role),
		PhoneNumber: "254700000000",
		Role:        role,
		Active:      true,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m.MemberID
}
