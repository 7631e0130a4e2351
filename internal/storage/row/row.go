// Package row implements flintdb's fixed-width row codec (spec section
// 4.6): encoding a column.Row into exactly schema.RowSize() bytes and
// decoding it back.
package row

import (
	"math"
	"strings"
	"time"

	"github.com/flintdb/flintdb/internal/column"
	"github.com/flintdb/flintdb/internal/errs"
)

// Encode serializes row into dst, which must be exactly schema.RowSize()
// bytes. Missing values fall back to the column default; a column with
// neither a supplied value nor a default is a Schema error unless it is
// nullable, in which case its bytes are left zeroed.
func Encode(schema column.Schema, row column.Row, dst []byte) error {
	want := schema.RowSize()
	if len(dst) != want {
		return errs.New(errs.Encoding, "destination buffer is %d bytes, row size is %d", len(dst), want)
	}
	for i := range dst {
		dst[i] = 0
	}
	offsets := schema.Offsets()
	for i, col := range schema {
		size := col.FixedSize()
		buf := dst[offsets[i] : offsets[i]+size]
		v, ok := row[col.Name]
		if !ok {
			filled, err := column.BuildRow(column.Schema{col}, nil, nil)
			if err != nil {
				return err
			}
			if v, ok = filled[col.Name]; !ok {
				continue
			}
		}
		if err := encodeValue(col, v, buf); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(col column.Column, v column.Value, buf []byte) error {
	switch col.Type {
	case column.Int:
		putIntLE(buf, uint64(v.Int), 8)
	case column.SmallInt:
		putIntLE(buf, uint64(uint16(v.Int)), 2)
	case column.TinyInt:
		buf[0] = byte(v.Int)
	case column.BigInt:
		v.Big.EncodeLE(buf)
	case column.Float:
		putFloat32(buf, v.Float32)
	case column.Double:
		putFloat64(buf, v.Float64)
	case column.Varchar, column.Text:
		if len(v.Str) > len(buf) {
			return errs.New(errs.Encoding, "column %q: value exceeds field width", col.Name)
		}
		copy(buf, v.Str)
	case column.DateTime, column.Timestamp:
		putIntLE(buf, uint64(v.Time.Unix()), 8)
	case column.Boolean:
		if v.Bool {
			buf[0] = 1
		}
	default:
		return errs.New(errs.Encoding, "column %q: unsupported type", col.Name)
	}
	return nil
}

// Decode reverses Encode, returning a Row keyed by column name.
func Decode(schema column.Schema, src []byte) (column.Row, error) {
	want := schema.RowSize()
	if len(src) != want {
		return nil, errs.New(errs.Encoding, "source buffer is %d bytes, row size is %d", len(src), want)
	}
	offsets := schema.Offsets()
	row := make(column.Row, len(schema))
	for i, col := range schema {
		size := col.FixedSize()
		buf := src[offsets[i] : offsets[i]+size]
		v, err := decodeValue(col, buf)
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
	}
	return row, nil
}

func decodeValue(col column.Column, buf []byte) (column.Value, error) {
	switch col.Type {
	case column.Int:
		return column.Value{Kind: column.Int, Int: int64(getIntLE(buf, 8))}, nil
	case column.SmallInt:
		return column.Value{Kind: column.SmallInt, Int: int64(int16(getIntLE(buf, 2)))}, nil
	case column.TinyInt:
		return column.Value{Kind: column.TinyInt, Int: int64(int8(buf[0]))}, nil
	case column.BigInt:
		return column.Value{Kind: column.BigInt, Big: column.DecodeInt128LE(buf)}, nil
	case column.Float:
		return column.Value{Kind: column.Float, Float32: getFloat32(buf)}, nil
	case column.Double:
		return column.Value{Kind: column.Double, Float64: getFloat64(buf)}, nil
	case column.Varchar, column.Text:
		s := string(buf)
		if i := strings.IndexByte(s, 0); i >= 0 {
			s = s[:i]
		}
		return column.Value{Kind: col.Type, Str: s}, nil
	case column.DateTime, column.Timestamp:
		t := time.Unix(int64(getIntLE(buf, 8)), 0).UTC()
		return column.Value{Kind: col.Type, Time: t}, nil
	case column.Boolean:
		return column.Value{Kind: column.Boolean, Bool: buf[0] != 0}, nil
	default:
		return column.Value{}, errs.New(errs.Encoding, "column %q: unsupported type", col.Name)
	}
}

func putIntLE(buf []byte, v uint64, n int) {
	for i := 0; i < n; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func getIntLE(buf []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

func putFloat32(buf []byte, f float32) {
	putIntLE(buf, uint64(math.Float32bits(f)), 4)
}

func getFloat32(buf []byte) float32 {
	return math.Float32frombits(uint32(getIntLE(buf, 4)))
}

func putFloat64(buf []byte, f float64) {
	putIntLE(buf, math.Float64bits(f), 8)
}

func getFloat64(buf []byte) float64 {
	return math.Float64frombits(getIntLE(buf, 8))
}
