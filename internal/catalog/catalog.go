// Package catalog tracks the databases and tables flintdb knows about on
// disk: one directory per database under the data root, one .tbd file
// plus a .schema sidecar per table. This replaces original_source's
// process-wide Lazy<TableSchema> singleton (a single statically-sized
// table baked into the binary) with schema persisted alongside the data
// it describes, so a session can open any number of named tables.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flintdb/flintdb/internal/column"
	"github.com/flintdb/flintdb/internal/errs"
	"github.com/flintdb/flintdb/internal/storage/table"
	"go.uber.org/zap"
)

const (
	tableExt  = ".tbd"
	schemaExt = ".schema"
)

// Catalog is the root of flintdb's on-disk namespace: DataRoot/<db>/<table>.tbd.
type Catalog struct {
	DataRoot string
	log      *zap.Logger
}

// Open creates dataRoot if absent and returns a Catalog rooted there.
func Open(dataRoot string, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return nil, errs.Wrap(errs.Io, err, "create data root %s", dataRoot)
	}
	return &Catalog{DataRoot: dataRoot, log: log}, nil
}

func (c *Catalog) dbPath(db string) string {
	return filepath.Join(c.DataRoot, db)
}

func (c *Catalog) tablePath(db, name string) string {
	return filepath.Join(c.dbPath(db), name+tableExt)
}

func (c *Catalog) schemaPath(db, name string) string {
	return filepath.Join(c.dbPath(db), name+schemaExt)
}

// CreateDatabase makes a new database directory; fails if it exists.
func (c *Catalog) CreateDatabase(db string) error {
	path := c.dbPath(db)
	if _, err := os.Stat(path); err == nil {
		return errs.New(errs.Schema, "database %q already exists", db)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return errs.Wrap(errs.Io, err, "create database %s", db)
	}
	c.log.Info("created database", zap.String("database", db))
	return nil
}

// DropDatabase deletes a database directory and everything under it.
func (c *Catalog) DropDatabase(db string) error {
	path := c.dbPath(db)
	if _, err := os.Stat(path); err != nil {
		return errs.New(errs.Schema, "database %q does not exist", db)
	}
	if err := os.RemoveAll(path); err != nil {
		return errs.Wrap(errs.Io, err, "drop database %s", db)
	}
	c.log.Info("dropped database", zap.String("database", db))
	return nil
}

// DatabaseExists reports whether a database directory exists.
func (c *Catalog) DatabaseExists(db string) bool {
	info, err := os.Stat(c.dbPath(db))
	return err == nil && info.IsDir()
}

// ShowDatabases lists database names, sorted.
func (c *Catalog) ShowDatabases() ([]string, error) {
	entries, err := os.ReadDir(c.DataRoot)
	if err != nil {
		return nil, errs.Wrap(errs.Io, err, "read data root")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateTable creates a new table file and its schema sidecar within db.
func (c *Catalog) CreateTable(db, name string, schema column.Schema) (*table.Table, error) {
	if !c.DatabaseExists(db) {
		return nil, errs.New(errs.Schema, "database %q does not exist", db)
	}
	if _, _, err := schema.Primary(); err != nil {
		return nil, err
	}
	if err := c.writeSchema(db, name, schema); err != nil {
		return nil, err
	}
	t, err := table.Create(c.tablePath(db, name), schema, c.log)
	if err != nil {
		os.Remove(c.schemaPath(db, name))
		return nil, err
	}
	t.Name = name
	c.log.Info("created table", zap.String("database", db), zap.String("table", name))
	return t, nil
}

// OpenTable loads a table's schema sidecar and its data file.
func (c *Catalog) OpenTable(db, name string) (*table.Table, error) {
	if !c.DatabaseExists(db) {
		return nil, errs.New(errs.Schema, "database %q does not exist", db)
	}
	schema, err := c.readSchema(db, name)
	if err != nil {
		return nil, err
	}
	t, err := table.Open(c.tablePath(db, name), schema, c.log)
	if err != nil {
		return nil, err
	}
	t.Name = name
	return t, nil
}

// DropTable removes a table's data file and schema sidecar.
func (c *Catalog) DropTable(db, name string) error {
	if err := table.Drop(c.tablePath(db, name)); err != nil {
		return err
	}
	if err := os.Remove(c.schemaPath(db, name)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.Io, err, "remove schema sidecar for %s", name)
	}
	c.log.Info("dropped table", zap.String("database", db), zap.String("table", name))
	return nil
}

// ShowTables lists table names within db, sorted.
func (c *Catalog) ShowTables(db string) ([]string, error) {
	if !c.DatabaseExists(db) {
		return nil, errs.New(errs.Schema, "database %q does not exist", db)
	}
	entries, err := os.ReadDir(c.dbPath(db))
	if err != nil {
		return nil, errs.Wrap(errs.Io, err, "read database %s", db)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), tableExt) {
			names = append(names, strings.TrimSuffix(e.Name(), tableExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Schema returns a table's schema without opening its data file.
func (c *Catalog) Schema(db, name string) (column.Schema, error) {
	return c.readSchema(db, name)
}

func (c *Catalog) writeSchema(db, name string, schema column.Schema) error {
	buf, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Encoding, err, "marshal schema for %s", name)
	}
	if err := os.WriteFile(c.schemaPath(db, name), buf, 0o644); err != nil {
		return errs.Wrap(errs.Io, err, "write schema sidecar for %s", name)
	}
	return nil
}

func (c *Catalog) readSchema(db, name string) (column.Schema, error) {
	buf, err := os.ReadFile(c.schemaPath(db, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.Schema, "table %q does not exist in database %q", name, db)
		}
		return nil, errs.Wrap(errs.Io, err, "read schema sidecar for %s", name)
	}
	var schema column.Schema
	if err := json.Unmarshal(buf, &schema); err != nil {
		return nil, errs.Wrap(errs.Encoding, err, "unmarshal schema for %s", name)
	}
	return schema, nil
}
