package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flintdb/flintdb/internal/column"
)

func testSchema() column.Schema {
	return column.Schema{
		{Name: "id", Type: column.Int, IsPrimary: true},
		{Name: "email", Type: column.Varchar, VarcharLen: 64},
	}
}

func TestCreateAndShowDatabases(t *testing.T) {
	cat, err := Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, cat.CreateDatabase("shop"))
	err = cat.CreateDatabase("shop")
	assert.Error(t, err)

	names, err := cat.ShowDatabases()
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, names)
}

func TestCreateTableRequiresExistingDatabaseAndPrimaryKey(t *testing.T) {
	cat, err := Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = cat.CreateTable("nope", "users", testSchema())
	assert.Error(t, err)

	require.NoError(t, cat.CreateDatabase("shop"))
	noPrimary := column.Schema{{Name: "x", Type: column.Int}}
	_, err = cat.CreateTable("shop", "bad", noPrimary)
	assert.Error(t, err)
}

func TestCreateOpenDropTableLifecycle(t *testing.T) {
	cat, err := Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, cat.CreateDatabase("shop"))

	tbl, err := cat.CreateTable("shop", "users", testSchema())
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	names, err := cat.ShowTables("shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, names)

	reopened, err := cat.OpenTable("shop", "users")
	require.NoError(t, err)
	assert.Equal(t, "users", reopened.Name)
	require.NoError(t, reopened.Close())

	require.NoError(t, cat.DropTable("shop", "users"))
	_, err = cat.OpenTable("shop", "users")
	assert.Error(t, err)
}

func TestDropDatabaseRemovesItsTables(t *testing.T) {
	cat, err := Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, cat.CreateDatabase("shop"))
	tbl, err := cat.CreateTable("shop", "users", testSchema())
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	require.NoError(t, cat.DropDatabase("shop"))
	assert.False(t, cat.DatabaseExists("shop"))
}
