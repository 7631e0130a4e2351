package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flintdb/flintdb/internal/catalog"
	"github.com/flintdb/flintdb/internal/column"
)

func testSchema() column.Schema {
	return column.Schema{{Name: "id", Type: column.Int, IsPrimary: true}}
}

func TestUseDatabaseRequiresExisting(t *testing.T) {
	cat, err := catalog.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	sess := Open(cat, zap.NewNop())

	err = sess.UseDatabase("nope")
	assert.Error(t, err)
}

func TestTableRequiresActiveDatabase(t *testing.T) {
	cat, err := catalog.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	sess := Open(cat, zap.NewNop())

	_, err = sess.Table("users")
	assert.Error(t, err)
}

func TestTableCachesOpenHandle(t *testing.T) {
	cat, err := catalog.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, cat.CreateDatabase("shop"))
	tbl, err := cat.CreateTable("shop", "users", testSchema())
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	sess := Open(cat, zap.NewNop())
	require.NoError(t, sess.UseDatabase("shop"))

	t1, err := sess.Table("users")
	require.NoError(t, err)
	t2, err := sess.Table("users")
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	require.NoError(t, sess.Close())
}

func TestSwitchingDatabaseClosesPreviousTables(t *testing.T) {
	cat, err := catalog.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, cat.CreateDatabase("a"))
	require.NoError(t, cat.CreateDatabase("b"))
	tbl, err := cat.CreateTable("a", "users", testSchema())
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	sess := Open(cat, zap.NewNop())
	require.NoError(t, sess.UseDatabase("a"))
	_, err = sess.Table("users")
	require.NoError(t, err)

	require.NoError(t, sess.UseDatabase("b"))
	assert.Equal(t, "b", sess.Database)
}
