package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flintdb/flintdb/internal/column"
)

func testSchema() column.Schema {
	return column.Schema{
		{Name: "id", Type: column.Int, IsPrimary: true},
		{Name: "name", Type: column.Varchar, VarcharLen: 32},
		{Name: "active", Type: column.Boolean},
	}
}

func TestCreateFailsIfFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.tbd")
	_, err := Create(path, testSchema(), zap.NewNop())
	require.NoError(t, err)

	_, err = Create(path, testSchema(), zap.NewNop())
	assert.Error(t, err)
}

func TestInsertAndSelectRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.tbd")
	tbl, err := Create(path, testSchema(), zap.NewNop())
	require.NoError(t, err)

	rows := []column.Row{
		{"id": column.Value{Kind: column.Int, Int: 2}, "name": column.Value{Kind: column.Varchar, Str: "bob"}, "active": column.Value{Kind: column.Boolean, Bool: false}},
		{"id": column.Value{Kind: column.Int, Int: 1}, "name": column.Value{Kind: column.Varchar, Str: "alice"}, "active": column.Value{Kind: column.Boolean, Bool: true}},
	}
	for _, r := range rows {
		require.NoError(t, tbl.InsertRow(r))
	}
	require.NoError(t, tbl.Close())

	reopened, err := Open(path, testSchema(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), reopened.NumRows)

	out, err := reopened.SelectRows()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0]["id"].Int)
	assert.Equal(t, "alice", out[0]["name"].Str)
	assert.Equal(t, int64(2), out[1]["id"].Int)
	assert.Equal(t, "bob", out[1]["name"].Str)
}

func TestDropRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.tbd")
	tbl, err := Create(path, testSchema(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	require.NoError(t, Drop(path))
	assert.Error(t, Drop(path))
}
