// Package testutil opens throwaway databases for repository and service tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns an in-memory database private to the calling test with
// the given models migrated.
func OpenSQLite(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}

// Node returns a snowflake node for generating row ids in tests.
func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// ParseID parses a snowflake id rendered by a view.
func ParseID(t *testing.T, value string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(value)
	require.NoError(t, err)
	return id
}

// CreateInvoiceCaches creates the per-family invoice cache tables. Both share
// one shape, so they are created from DDL rather than a model.
func CreateInvoiceCaches(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, table := range []string{"square_invoices", "squarespace_orders"} {
		require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS `+table+` (
			id BIGINT PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			external_id TEXT NOT NULL,
			customer_email TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL DEFAULT '0',
			line_items_summary TEXT NOT NULL DEFAULT '',
			raw_json TEXT NOT NULL DEFAULT '{}',
			synced_at DATETIME NOT NULL
		)`).Error)
		require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_`+table+`_owner_external
			ON `+table+` (owner_id, external_id)`).Error)
	}
}
