package model

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/shadower-ai/shadow-analytics/common"
)

// setupTestDatabase points the package-level DB at a fresh in-memory SQLite
// instance with the schema migrated.
func setupTestDatabase(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	common.UsingSQLite.Store(true)

	if err := db.AutoMigrate(&UsageEvent{}, &WorkspaceBudget{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	// Fresh tables per test: the shared-cache DSN survives across connections.
	db.Exec("DELETE FROM usage_events")
	db.Exec("DELETE FROM workspace_budgets")

	DB = db
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
}
