package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt128RoundTrip(t *testing.T) {
	cases := []string{"0", "1", "-1", "170141183460469231731687303715884105727", "-170141183460469231731687303715884105728", "123456789012345678"}
	for _, s := range cases {
		v, err := ParseInt128(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, v.String(), s)
	}
}

func TestParseInt128OutOfRange(t *testing.T) {
	_, err := ParseInt128("170141183460469231731687303715884105728") // max+1
	assert.Error(t, err)
}

func TestParseInt128Invalid(t *testing.T) {
	_, err := ParseInt128("not-a-number")
	assert.Error(t, err)
}

func TestInt128EncodeDecodeLE(t *testing.T) {
	v, err := ParseInt128("-42")
	require.NoError(t, err)
	buf := make([]byte, 16)
	v.EncodeLE(buf)
	got := DecodeInt128LE(buf)
	assert.Equal(t, v, got)
	assert.Equal(t, "-42", got.String())
}
