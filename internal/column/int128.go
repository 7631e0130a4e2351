package column

import (
	"encoding/binary"
	"math/big"

	"github.com/flintdb/flintdb/internal/errs"
)

// Int128 is a signed 128-bit integer, stored as a little-endian
// two's-complement pair of 64-bit words. Go has no native int128; BIGINT
// values are represented this way and converted through math/big for
// parsing, formatting, and range checks.
type Int128 struct {
	Hi uint64
	Lo uint64
}

var (
	int128Min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	int128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	two128    = new(big.Int).Lsh(big.NewInt(1), 128)
)

// ParseInt128 parses a base-10 signed integer literal into an Int128,
// failing if it does not fit in 128 bits.
func ParseInt128(s string) (Int128, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, errs.New(errs.Schema, "invalid BIGINT literal %q", s)
	}
	if v.Cmp(int128Min) < 0 || v.Cmp(int128Max) > 0 {
		return Int128{}, errs.New(errs.Schema, "BIGINT literal %q out of range", s)
	}
	unsigned := v
	if v.Sign() < 0 {
		unsigned = new(big.Int).Add(v, two128)
	}
	buf := make([]byte, 16)
	unsigned.FillBytes(buf) // big-endian, 16 bytes
	return Int128{
		Hi: binary.BigEndian.Uint64(buf[0:8]),
		Lo: binary.BigEndian.Uint64(buf[8:16]),
	}, nil
}

// String renders the signed decimal value of i.
func (i Int128) String() string {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], i.Hi)
	binary.BigEndian.PutUint64(buf[8:16], i.Lo)
	v := new(big.Int).SetBytes(buf)
	if i.Hi&(1<<63) != 0 {
		v.Sub(v, two128)
	}
	return v.String()
}

// EncodeLE writes i into a 16-byte little-endian buffer.
func (i Int128) EncodeLE(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:8], i.Lo)
	binary.LittleEndian.PutUint64(dst[8:16], i.Hi)
}

// DecodeInt128LE reads a 16-byte little-endian buffer into an Int128.
func DecodeInt128LE(src []byte) Int128 {
	return Int128{
		Lo: binary.LittleEndian.Uint64(src[0:8]),
		Hi: binary.LittleEndian.Uint64(src[8:16]),
	}
}
