// Package session tracks one client's connection state: which database
// is active and which of its tables are currently open, mirroring
// original_source's per-connection Session but backed by the catalog's
// multi-table namespace instead of a single hardcoded table.
package session

import (
	"github.com/google/uuid"

	"github.com/flintdb/flintdb/internal/catalog"
	"github.com/flintdb/flintdb/internal/errs"
	"github.com/flintdb/flintdb/internal/storage/table"
	"go.uber.org/zap"
)

// Session is one REPL or connection's working state.
type Session struct {
	ID       uuid.UUID
	Catalog  *catalog.Catalog
	Database string
	tables   map[string]*table.Table
	log      *zap.Logger
}

// Open starts a fresh session with no active database.
func Open(cat *catalog.Catalog, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{ID: uuid.New(), Catalog: cat, tables: make(map[string]*table.Table), log: log}
}

// UseDatabase closes any tables open from the previous database and
// switches the session onto db.
func (s *Session) UseDatabase(db string) error {
	if !s.Catalog.DatabaseExists(db) {
		return errs.New(errs.Schema, "database %q does not exist", db)
	}
	if err := s.closeOpenTables(); err != nil {
		return err
	}
	s.Database = db
	s.log.Info("session switched database", zap.String("session", s.ID.String()), zap.String("database", db))
	return nil
}

// Table returns the named table from the active database, opening and
// caching it on first use.
func (s *Session) Table(name string) (*table.Table, error) {
	if s.Database == "" {
		return nil, errs.New(errs.Session, "no database selected")
	}
	if t, ok := s.tables[name]; ok {
		return t, nil
	}
	t, err := s.Catalog.OpenTable(s.Database, name)
	if err != nil {
		return nil, err
	}
	s.tables[name] = t
	return t, nil
}

// InvalidateTable drops a table from the session's open-table cache
// without touching its file, used after the table has been dropped.
func (s *Session) InvalidateTable(name string) {
	delete(s.tables, name)
}

func (s *Session) closeOpenTables() error {
	for name, t := range s.tables {
		if err := t.Close(); err != nil {
			return errs.Wrap(errs.Storage, err, "close table %s", name)
		}
		delete(s.tables, name)
	}
	return nil
}

// Close flushes and closes every table the session has open.
func (s *Session) Close() error {
	if err := s.closeOpenTables(); err != nil {
		return err
	}
	s.log.Info("session closed", zap.String("session", s.ID.String()))
	return nil
}
