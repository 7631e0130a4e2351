// Package pagecodec provides bounds-checked little-endian accessors over a
// fixed-size page buffer.
package pagecodec

import (
	"encoding/binary"

	"github.com/flintdb/flintdb/internal/errs"
)

func checkRange(buf []byte, offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(buf) {
		return errs.New(errs.Storage, "offset exceeds buffer (offset=%d size=%d buflen=%d)", offset, size, len(buf))
	}
	return nil
}

// GetU8 reads a single byte at offset.
func GetU8(buf []byte, offset int) (uint8, error) {
	if err := checkRange(buf, offset, 1); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// PutU8 writes a single byte at offset.
func PutU8(buf []byte, offset int, v uint8) error {
	if err := checkRange(buf, offset, 1); err != nil {
		return err
	}
	buf[offset] = v
	return nil
}

// GetU32 reads a little-endian uint32 at offset.
func GetU32(buf []byte, offset int) (uint32, error) {
	if err := checkRange(buf, offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset : offset+4]), nil
}

// PutU32 writes a little-endian uint32 at offset.
func PutU32(buf []byte, offset int, v uint32) error {
	if err := checkRange(buf, offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
	return nil
}

// Slice returns a bounds-checked sub-slice of buf.
func Slice(buf []byte, offset, size int) ([]byte, error) {
	if err := checkRange(buf, offset, size); err != nil {
		return nil, err
	}
	return buf[offset : offset+size], nil
}
