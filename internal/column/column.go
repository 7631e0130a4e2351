// Package column defines flintdb's fixed-width column types and schemas.
package column

import "github.com/flintdb/flintdb/internal/errs"

// Type is one of the fixed-width column types a table row may contain.
type Type uint8

const (
	Int Type = iota
	SmallInt
	TinyInt
	BigInt
	Float
	Double
	Varchar
	Text
	DateTime
	Timestamp
	Boolean
)

// TextSize is the fixed on-disk width of a TEXT column.
const TextSize = 65535

// VarcharMaxSize bounds how wide a VARCHAR(n) column may be declared.
const VarcharMaxSize = 2048

func (t Type) String() string {
	switch t {
	case Int:
		return "INT"
	case SmallInt:
		return "SMALLINT"
	case TinyInt:
		return "TINYINT"
	case BigInt:
		return "BIGINT"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Varchar:
		return "VARCHAR"
	case Text:
		return "TEXT"
	case DateTime:
		return "DATETIME"
	case Timestamp:
		return "TIMESTAMP"
	case Boolean:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// Column describes one field of a table's schema.
type Column struct {
	Name       string
	Type       Type
	VarcharLen uint16 // only meaningful when Type == Varchar
	Default    string
	HasDefault bool
	IsPrimary  bool
	IsNullable bool
}

// FixedSize returns the column's on-disk width in bytes.
func (c Column) FixedSize() int {
	switch c.Type {
	case Int:
		return 8
	case SmallInt:
		return 2
	case TinyInt:
		return 1
	case BigInt:
		return 16
	case Float:
		return 4
	case Double:
		return 8
	case Varchar:
		return int(c.VarcharLen)
	case Text:
		return TextSize
	case DateTime:
		return 8
	case Timestamp:
		return 8
	case Boolean:
		return 1
	default:
		return 0
	}
}

// Schema is an ordered list of columns.
type Schema []Column

// RowSize is the total fixed width of an encoded row for this schema.
func (s Schema) RowSize() int {
	total := 0
	for _, c := range s {
		total += c.FixedSize()
	}
	return total
}

// Offsets returns the byte offset of each column within an encoded row.
func (s Schema) Offsets() []int {
	offs := make([]int, len(s))
	cur := 0
	for i, c := range s {
		offs[i] = cur
		cur += c.FixedSize()
	}
	return offs
}

// Primary returns the schema's single primary-key column and its index.
func (s Schema) Primary() (Column, int, error) {
	idx := -1
	for i, c := range s {
		if c.IsPrimary {
			if idx != -1 {
				return Column{}, 0, errs.New(errs.Schema, "table has more than one primary column: %q and %q", s[idx].Name, c.Name)
			}
			idx = i
		}
	}
	if idx == -1 {
		return Column{}, 0, errs.New(errs.Schema, "table has no primary column")
	}
	return s[idx], idx, nil
}

// ByName returns the column with the given name.
func (s Schema) ByName(name string) (Column, int, error) {
	for i, c := range s {
		if c.Name == name {
			return c, i, nil
		}
	}
	return Column{}, 0, errs.New(errs.Schema, "unknown column %q", name)
}
