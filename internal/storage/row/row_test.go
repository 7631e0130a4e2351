package row

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flintdb/flintdb/internal/column"
)

func testSchema() column.Schema {
	return column.Schema{
		{Name: "id", Type: column.Int, IsPrimary: true},
		{Name: "age", Type: column.TinyInt},
		{Name: "score", Type: column.Double},
		{Name: "name", Type: column.Varchar, VarcharLen: 16},
		{Name: "bio", Type: column.Text, IsNullable: true},
		{Name: "active", Type: column.Boolean},
		{Name: "created", Type: column.DateTime},
		{Name: "amount", Type: column.BigInt},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	schema := testSchema()
	big, err := column.ParseInt128("123456789012345678901234567890")
	require.NoError(t, err)
	now := time.Unix(1690000000, 0).UTC()

	in := column.Row{
		"id":      column.Value{Kind: column.Int, Int: 9},
		"age":     column.Value{Kind: column.TinyInt, Int: 30},
		"score":   column.Value{Kind: column.Double, Float64: 3.5},
		"name":    column.Value{Kind: column.Varchar, Str: "alice"},
		"active":  column.Value{Kind: column.Boolean, Bool: true},
		"created": column.Value{Kind: column.DateTime, Time: now},
		"amount":  column.Value{Kind: column.BigInt, Big: big},
	}

	buf := make([]byte, schema.RowSize())
	require.NoError(t, Encode(schema, in, buf))

	out, err := Decode(schema, buf)
	require.NoError(t, err)

	assert.Equal(t, int64(9), out["id"].Int)
	assert.Equal(t, int64(30), out["age"].Int)
	assert.Equal(t, 3.5, out["score"].Float64)
	assert.Equal(t, "alice", out["name"].Str)
	assert.Equal(t, "", out["bio"].Str)
	assert.True(t, out["active"].Bool)
	assert.Equal(t, now.Unix(), out["created"].Time.Unix())
	assert.Equal(t, big.String(), out["amount"].Big.String())
}

func TestEncodeRejectsWrongBufferSize(t *testing.T) {
	schema := testSchema()
	err := Encode(schema, column.Row{}, make([]byte, 1))
	assert.Error(t, err)
}

func TestEncodeMissingRequiredColumnFails(t *testing.T) {
	schema := testSchema()
	row := column.Row{"id": column.Value{Kind: column.Int, Int: 1}}
	buf := make([]byte, schema.RowSize())
	err := Encode(schema, row, buf)
	assert.Error(t, err)
}

func TestDecodeRejectsWrongBufferSize(t *testing.T) {
	schema := testSchema()
	_, err := Decode(schema, make([]byte, 1))
	assert.Error(t, err)
}

func TestVarcharZeroPaddedAndTrimmed(t *testing.T) {
	schema := column.Schema{
		{Name: "id", Type: column.Int, IsPrimary: true},
		{Name: "tag", Type: column.Varchar, VarcharLen: 8},
	}
	row := column.Row{
		"id":  column.Value{Kind: column.Int, Int: 1},
		"tag": column.Value{Kind: column.Varchar, Str: "hi"},
	}
	buf := make([]byte, schema.RowSize())
	require.NoError(t, Encode(schema, row, buf))
	tagBytes := buf[8:16]
	assert.Equal(t, byte('h'), tagBytes[0])
	assert.Equal(t, byte(0), tagBytes[2])

	out, err := Decode(schema, buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["tag"].Str)
}
