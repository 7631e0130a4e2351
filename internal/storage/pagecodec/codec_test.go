package pagecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetU8(t *testing.T) {
	buf := make([]byte, 4)
	require.NoError(t, PutU8(buf, 1, 0xAB))
	v, err := GetU8(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v)
}

func TestPutGetU32(t *testing.T) {
	buf := make([]byte, 8)
	require.NoError(t, PutU32(buf, 2, 0xDEADBEEF))
	v, err := GetU32(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestOutOfRangeErrors(t *testing.T) {
	buf := make([]byte, 4)
	_, err := GetU32(buf, 2)
	assert.Error(t, err)
	assert.Error(t, PutU32(buf, 10, 1))
	_, err = GetU8(buf, -1)
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	s, err := Slice(buf, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, s)

	_, err = Slice(buf, 3, 4)
	assert.Error(t, err)
}
