package column

import (
	"strconv"
	"time"

	"github.com/flintdb/flintdb/internal/errs"
)

// dateTimeLayouts are tried in order when parsing a DATETIME/TIMESTAMP
// literal; both types are stored as an 8-byte little-endian Unix-seconds
// count and rendered back out as RFC3339.
var dateTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Value is a typed column value. Exactly the field matching Kind is valid.
type Value struct {
	Kind    Type
	Int     int64
	Big     Int128
	Float32 float32
	Float64 float64
	Str     string
	Time    time.Time
	Bool    bool
}

// Row is a decoded record keyed by column name.
type Row map[string]Value

func parseValue(col Column, lit string) (Value, error) {
	switch col.Type {
	case Int:
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return Value{}, errs.New(errs.Schema, "column %q: invalid INT literal %q", col.Name, lit)
		}
		return Value{Kind: Int, Int: n}, nil
	case SmallInt:
		n, err := strconv.ParseInt(lit, 10, 16)
		if err != nil {
			return Value{}, errs.New(errs.Schema, "column %q: invalid SMALLINT literal %q", col.Name, lit)
		}
		return Value{Kind: SmallInt, Int: n}, nil
	case TinyInt:
		n, err := strconv.ParseInt(lit, 10, 8)
		if err != nil {
			return Value{}, errs.New(errs.Schema, "column %q: invalid TINYINT literal %q", col.Name, lit)
		}
		return Value{Kind: TinyInt, Int: n}, nil
	case BigInt:
		b, err := ParseInt128(lit)
		if err != nil {
			return Value{}, errs.New(errs.Schema, "column %q: %s", col.Name, err.Error())
		}
		return Value{Kind: BigInt, Big: b}, nil
	case Float:
		f, err := strconv.ParseFloat(lit, 32)
		if err != nil {
			return Value{}, errs.New(errs.Schema, "column %q: invalid FLOAT literal %q", col.Name, lit)
		}
		return Value{Kind: Float, Float32: float32(f)}, nil
	case Double:
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Value{}, errs.New(errs.Schema, "column %q: invalid DOUBLE literal %q", col.Name, lit)
		}
		return Value{Kind: Double, Float64: f}, nil
	case Varchar:
		if len(lit) > int(col.VarcharLen) {
			return Value{}, errs.New(errs.Schema, "column %q: value exceeds VARCHAR(%d)", col.Name, col.VarcharLen)
		}
		return Value{Kind: Varchar, Str: lit}, nil
	case Text:
		if len(lit) > TextSize {
			return Value{}, errs.New(errs.Schema, "column %q: value exceeds TEXT limit", col.Name)
		}
		return Value{Kind: Text, Str: lit}, nil
	case DateTime, Timestamp:
		var t time.Time
		var err error
		parsed := false
		for _, layout := range dateTimeLayouts {
			if t, err = time.Parse(layout, lit); err == nil {
				parsed = true
				break
			}
		}
		if !parsed {
			return Value{}, errs.New(errs.Schema, "column %q: invalid date/time literal %q", col.Name, lit)
		}
		return Value{Kind: col.Type, Time: t}, nil
	case Boolean:
		switch lit {
		case "true":
			return Value{Kind: Boolean, Bool: true}, nil
		case "false":
			return Value{Kind: Boolean, Bool: false}, nil
		default:
			return Value{}, errs.New(errs.Schema, "column %q: BOOLEAN must be true or false, got %q", col.Name, lit)
		}
	default:
		return Value{}, errs.New(errs.Schema, "column %q: unsupported type", col.Name)
	}
}

// BuildRow maps explicit (columns, values) pairs onto schema, falling back
// to declared defaults. A nullable column with neither a value nor a
// default is left out of the row; a non-nullable one is a Schema error, as
// is a strict parse failure.
func BuildRow(schema Schema, columns []string, values []string) (Row, error) {
	if len(columns) != len(values) {
		return nil, errs.New(errs.Schema, "column count (%d) does not match value count (%d)", len(columns), len(values))
	}
	given := make(map[string]string, len(columns))
	for i, name := range columns {
		if _, _, err := schema.ByName(name); err != nil {
			return nil, err
		}
		given[name] = values[i]
	}

	row := make(Row, len(schema))
	for _, col := range schema {
		lit, ok := given[col.Name]
		if !ok {
			if col.HasDefault {
				lit = col.Default
			} else if col.IsNullable {
				continue
			} else {
				return nil, errs.New(errs.Schema, "missing value for column %q", col.Name)
			}
		}
		v, err := parseValue(col, lit)
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
	}
	return row, nil
}

// RowKey extracts the primary column's value from row, cast to the
// unsigned 32-bit B+-tree key.
func RowKey(schema Schema, row Row) (uint32, error) {
	pk, _, err := schema.Primary()
	if err != nil {
		return 0, err
	}
	v, ok := row[pk.Name]
	if !ok {
		return 0, errs.New(errs.Schema, "row is missing primary column %q", pk.Name)
	}
	switch v.Kind {
	case Int, SmallInt, TinyInt:
		if v.Int < 0 {
			return 0, errs.New(errs.Schema, "primary column %q must be non-negative", pk.Name)
		}
		return uint32(v.Int), nil
	case BigInt:
		if v.Big.Hi != 0 || v.Big.Lo > 0xFFFFFFFF {
			return 0, errs.New(errs.Schema, "primary column %q out of uint32 range", pk.Name)
		}
		return uint32(v.Big.Lo), nil
	default:
		return 0, errs.New(errs.Schema, "primary column %q must be an integer type", pk.Name)
	}
}
