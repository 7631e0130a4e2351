package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRowUsesDefaultsAndNullable(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: Int, IsPrimary: true},
		{Name: "status", Type: Varchar, VarcharLen: 8, Default: "new", HasDefault: true},
		{Name: "note", Type: Text, IsNullable: true},
	}
	row, err := BuildRow(schema, []string{"id"}, []string{"7"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), row["id"].Int)
	assert.Equal(t, "new", row["status"].Str)
	_, hasNote := row["note"]
	assert.False(t, hasNote)
}

func TestBuildRowMissingRequiredColumn(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: Int, IsPrimary: true},
		{Name: "email", Type: Varchar, VarcharLen: 16},
	}
	_, err := BuildRow(schema, []string{"id"}, []string{"1"})
	assert.Error(t, err)
}

func TestBuildRowColumnValueCountMismatch(t *testing.T) {
	schema := Schema{{Name: "id", Type: Int, IsPrimary: true}}
	_, err := BuildRow(schema, []string{"id", "extra"}, []string{"1"})
	assert.Error(t, err)
}

func TestBuildRowStrictParseFailure(t *testing.T) {
	schema := Schema{{Name: "id", Type: Int, IsPrimary: true}}
	_, err := BuildRow(schema, []string{"id"}, []string{"not-a-number"})
	assert.Error(t, err)
}

func TestBuildRowVarcharTooLong(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: Int, IsPrimary: true},
		{Name: "tag", Type: Varchar, VarcharLen: 3},
	}
	_, err := BuildRow(schema, []string{"id", "tag"}, []string{"1", "toolong"})
	assert.Error(t, err)
}

func TestBuildRowBoolean(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: Int, IsPrimary: true},
		{Name: "active", Type: Boolean},
	}
	row, err := BuildRow(schema, []string{"id", "active"}, []string{"1", "true"})
	require.NoError(t, err)
	assert.True(t, row["active"].Bool)

	_, err = BuildRow(schema, []string{"id", "active"}, []string{"1", "yes"})
	assert.Error(t, err)
}

func TestRowKeyFromIntPrimary(t *testing.T) {
	schema := Schema{{Name: "id", Type: Int, IsPrimary: true}}
	row, err := BuildRow(schema, []string{"id"}, []string{"42"})
	require.NoError(t, err)
	key, err := RowKey(schema, row)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), key)
}

func TestRowKeyRejectsNegative(t *testing.T) {
	schema := Schema{{Name: "id", Type: Int, IsPrimary: true}}
	row, err := BuildRow(schema, []string{"id"}, []string{"-1"})
	require.NoError(t, err)
	_, err = RowKey(schema, row)
	assert.Error(t, err)
}

func TestRowKeyRejectsNonIntegerPrimary(t *testing.T) {
	schema := Schema{{Name: "id", Type: Varchar, VarcharLen: 8, IsPrimary: true}}
	row, err := BuildRow(schema, []string{"id"}, []string{"abc"})
	require.NoError(t, err)
	_, err = RowKey(schema, row)
	assert.Error(t, err)
}

func TestDateTimeParsing(t *testing.T) {
	schema := Schema{
		{Name: "id", Type: Int, IsPrimary: true},
		{Name: "created", Type: DateTime},
	}
	row, err := BuildRow(schema, []string{"id", "created"}, []string{"1", "2026-07-29"})
	require.NoError(t, err)
	assert.Equal(t, 2026, row["created"].Time.Year())
}
