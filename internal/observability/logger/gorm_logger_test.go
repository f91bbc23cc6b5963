package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationAndTableFromSQL(t *testing.T) {
	sql := `INSERT INTO "square_invoices" ("id","owner_id") VALUES (1,2) ON CONFLICT DO UPDATE`
	assert.Equal(t, "INSERT", operationFromSQL(sql))
	assert.Equal(t, "square_invoices", tableFromSQL(sql))

	sql = "WITH done AS (SELECT 1) SELECT b.title FROM bookings b"
	assert.Equal(t, "SELECT", operationFromSQL(sql))
	assert.Equal(t, "done", tableFromSQL("UPDATE done SET x = 1"))
	assert.Equal(t, "UNKNOWN", operationFromSQL("  "))
}
