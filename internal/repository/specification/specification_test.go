package specification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func buildSQL(t *testing.T, specs ...Specification) string {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	query := db.Table("ingestion_jobs")
	for _, s := range specs {
		query = s.Apply(query)
	}
	var rows []map[string]interface{}
	tx := query.Find(&rows)
	require.NoError(t, tx.Error)
	return tx.Statement.SQL.String()
}

func TestForUpdateTakesRowLock(t *testing.T) {
	sql := buildSQL(t, ByID{ID: uuid.New()}, ForUpdate{})
	assert.Contains(t, sql, "FOR UPDATE")
}

func TestNonTerminalJobFiltersTerminalStatuses(t *testing.T) {
	sql := buildSQL(t, NonTerminalJob{})
	assert.Contains(t, sql, "status IN")
}

func TestOrderByDirection(t *testing.T) {
	sql := buildSQL(t, OrderBy{Field: "created_at", Desc: true})
	assert.Contains(t, sql, "created_at DESC")
}
