package sql

import (
	"fmt"

	"github.com/flintdb/flintdb/internal/column"
	"github.com/flintdb/flintdb/internal/errs"
	"github.com/flintdb/flintdb/internal/session"
)

// Result is the tabular or informational outcome of executing one
// statement, ready for a shell to render.
type Result struct {
	Columns []string
	Rows    [][]string
	Message string
}

// Execute dispatches stmt against sess, mirroring
// original_source/src/command.rs::execute's statement switch.
func Execute(sess *session.Session, stmt Statement) (Result, error) {
	switch s := stmt.(type) {
	case CreateDatabaseStmt:
		return execCreateDatabase(sess, s)
	case DropDatabaseStmt:
		return execDropDatabase(sess, s)
	case UseStmt:
		return execUse(sess, s)
	case ShowStmt:
		return execShow(sess, s)
	case CreateTableStmt:
		return execCreateTable(sess, s)
	case DropTableStmt:
		return execDropTable(sess, s)
	case DescribeStmt:
		return execDescribe(sess, s)
	case InsertStmt:
		return execInsert(sess, s)
	case SelectStmt:
		return execSelect(sess, s)
	case UpdateStmt:
		return Result{}, errs.New(errs.Command, "UPDATE is not supported")
	case DeleteStmt:
		return Result{}, errs.New(errs.Command, "DELETE is not supported")
	default:
		return Result{}, errs.New(errs.Command, "unrecognized statement")
	}
}

func execCreateDatabase(sess *session.Session, s CreateDatabaseStmt) (Result, error) {
	if err := sess.Catalog.CreateDatabase(s.Name); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("database %q created", s.Name)}, nil
}

func execDropDatabase(sess *session.Session, s DropDatabaseStmt) (Result, error) {
	if err := sess.Catalog.DropDatabase(s.Name); err != nil {
		return Result{}, err
	}
	if sess.Database == s.Name {
		sess.Database = ""
	}
	return Result{Message: fmt.Sprintf("database %q dropped", s.Name)}, nil
}

func execUse(sess *session.Session, s UseStmt) (Result, error) {
	if err := sess.UseDatabase(s.Database); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("using database %q", s.Database)}, nil
}

func execShow(sess *session.Session, s ShowStmt) (Result, error) {
	var names []string
	var err error
	if s.What == "DATABASES" {
		names, err = sess.Catalog.ShowDatabases()
	} else {
		if sess.Database == "" {
			return Result{}, errs.New(errs.Session, "no database selected")
		}
		names, err = sess.Catalog.ShowTables(sess.Database)
	}
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	return Result{Columns: []string{s.What}, Rows: rows}, nil
}

func execCreateTable(sess *session.Session, s CreateTableStmt) (Result, error) {
	if sess.Database == "" {
		return Result{}, errs.New(errs.Session, "no database selected")
	}
	schema := make(column.Schema, 0, len(s.Columns))
	for _, c := range s.Columns {
		schema = append(schema, column.Column{
			Name:       c.Name,
			Type:       c.Type,
			VarcharLen: c.VarcharLen,
			Default:    c.Default,
			HasDefault: c.HasDefault,
			IsPrimary:  c.IsPrimary,
			IsNullable: !c.NotNull && !c.IsPrimary,
		})
	}
	t, err := sess.Catalog.CreateTable(sess.Database, s.Name, schema)
	if err != nil {
		return Result{}, err
	}
	if err := t.Close(); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("table %q created", s.Name)}, nil
}

func execDropTable(sess *session.Session, s DropTableStmt) (Result, error) {
	if sess.Database == "" {
		return Result{}, errs.New(errs.Session, "no database selected")
	}
	if err := sess.Catalog.DropTable(sess.Database, s.Name); err != nil {
		return Result{}, err
	}
	sess.InvalidateTable(s.Name)
	return Result{Message: fmt.Sprintf("table %q dropped", s.Name)}, nil
}

func execDescribe(sess *session.Session, s DescribeStmt) (Result, error) {
	if sess.Database == "" {
		return Result{}, errs.New(errs.Session, "no database selected")
	}
	schema, err := sess.Catalog.Schema(sess.Database, s.Table)
	if err != nil {
		return Result{}, err
	}
	rows := make([][]string, 0, len(schema))
	for _, c := range schema {
		rows = append(rows, []string{c.Name, c.Type.String(), fmt.Sprintf("%v", c.IsPrimary), fmt.Sprintf("%v", !c.IsNullable)})
	}
	return Result{Columns: []string{"column", "type", "primary", "not_null"}, Rows: rows}, nil
}

func execInsert(sess *session.Session, s InsertStmt) (Result, error) {
	t, err := sess.Table(s.Table)
	if err != nil {
		return Result{}, err
	}
	cols := s.Columns
	if len(cols) == 0 {
		cols = make([]string, len(t.Schema))
		for i, c := range t.Schema {
			cols[i] = c.Name
		}
	}
	row, err := column.BuildRow(t.Schema, cols, s.Values)
	if err != nil {
		return Result{}, err
	}
	if err := t.InsertRow(row); err != nil {
		return Result{}, err
	}
	return Result{Message: "1 row inserted"}, nil
}

func execSelect(sess *session.Session, s SelectStmt) (Result, error) {
	t, err := sess.Table(s.Table)
	if err != nil {
		return Result{}, err
	}
	rows, err := t.SelectRows()
	if err != nil {
		return Result{}, err
	}
	cols := s.Columns
	if len(cols) == 0 {
		cols = make([]string, len(t.Schema))
		for i, c := range t.Schema {
			cols[i] = c.Name
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(cols))
		for j, name := range cols {
			if v, ok := row[name]; ok {
				rec[j] = formatValue(v)
			}
		}
		out[i] = rec
	}
	return Result{Columns: cols, Rows: out}, nil
}

func formatValue(v column.Value) string {
	switch v.Kind {
	case column.Int, column.SmallInt, column.TinyInt:
		return fmt.Sprintf("%d", v.Int)
	case column.BigInt:
		return v.Big.String()
	case column.Float:
		return fmt.Sprintf("%g", v.Float32)
	case column.Double:
		return fmt.Sprintf("%g", v.Float64)
	case column.Varchar, column.Text:
		return v.Str
	case column.DateTime, column.Timestamp:
		return v.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	case column.Boolean:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
