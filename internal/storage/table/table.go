// Package table implements flintdb's on-disk table file format (spec
// section 4.7): a tablespace header, a sequence of page frames (each a
// 28-byte bookkeeping header immediately followed by a PageSize page
// body), and the open/create/drop/flush lifecycle operations.
package table

import (
	"encoding/binary"
	"os"

	"github.com/flintdb/flintdb/internal/column"
	"github.com/flintdb/flintdb/internal/errs"
	"github.com/flintdb/flintdb/internal/storage/btree"
	storagerow "github.com/flintdb/flintdb/internal/storage/row"
	"go.uber.org/zap"
)

const (
	tablespaceHeaderSize = 16

	// pageHeaderSize is the width of each page frame's bookkeeping header,
	// shape recovered from original_source/src/storage/table.rs's
	// PageHeader (page_n_recs, page_n_heap, page_free, page_garbage,
	// page_prev, page_next — 16 bytes) extended with 12 reserved bytes to
	// the 28 bytes spec.md's external interface names. Contents are
	// round-tripped by btree.Pager on load/flush but never interpreted by
	// search or traversal.
	pageHeaderSize = 28
)

// Table is one open .tbd file: its schema, its B+-tree, and the running
// row count recorded in the tablespace header.
type Table struct {
	Name    string
	Path    string
	Schema  column.Schema
	Tree    *btree.Tree
	NumRows uint32
	log     *zap.Logger
}

func encodeTablespaceHeader(numRows, pageFirst, rootPageNum uint32) []byte {
	buf := make([]byte, tablespaceHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], numRows)
	binary.LittleEndian.PutUint32(buf[4:8], pageFirst)
	binary.LittleEndian.PutUint32(buf[8:12], rootPageNum)
	return buf
}

func decodeTablespaceHeader(buf []byte) (numRows, pageFirst, rootPageNum uint32, err error) {
	if len(buf) != tablespaceHeaderSize {
		return 0, 0, 0, errs.New(errs.Encoding, "tablespace header is %d bytes, expected %d", len(buf), tablespaceHeaderSize)
	}
	return binary.LittleEndian.Uint32(buf[0:4]), binary.LittleEndian.Uint32(buf[4:8]), binary.LittleEndian.Uint32(buf[8:12]), nil
}

// Create makes a new, empty table file at path; it is an error if the
// file already exists.
func Create(path string, schema column.Schema, log *zap.Logger) (*Table, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errs.New(errs.Schema, "table file %q already exists", path)
	}
	pager, _, err := btree.OpenPager(path, tablespaceHeaderSize, log)
	if err != nil {
		return nil, err
	}
	tree := btree.NewTree(pager, 0, schema.RowSize(), log)
	if err := tree.InitEmptyRoot(); err != nil {
		return nil, err
	}
	t := &Table{Path: path, Schema: schema, Tree: tree, NumRows: 0, log: log}
	return t, t.Flush()
}

// Open loads an existing table file, reading the tablespace header and
// every page frame it describes.
func Open(path string, schema column.Schema, log *zap.Logger) (*Table, error) {
	pager, size, err := btree.OpenPager(path, tablespaceHeaderSize, log)
	if err != nil {
		return nil, err
	}
	if size < tablespaceHeaderSize {
		pager.Close()
		return nil, errs.New(errs.Storage, "table file %q is truncated", path)
	}
	headerBuf := make([]byte, tablespaceHeaderSize)
	if _, err := pager.ReadAt(headerBuf, 0); err != nil {
		pager.Close()
		return nil, errs.Wrap(errs.Io, err, "read tablespace header")
	}
	numRows, _, rootPageNum, err := decodeTablespaceHeader(headerBuf)
	if err != nil {
		pager.Close()
		return nil, err
	}

	frameSize := int64(pageHeaderSize + btree.PageSize)
	off := int64(tablespaceHeaderSize)
	for off+frameSize <= size {
		frame := make([]byte, frameSize)
		if _, err := pager.ReadAt(frame, off); err != nil {
			pager.Close()
			return nil, errs.Wrap(errs.Io, err, "read page frame")
		}
		pager.LoadFromDisk(frame[:pageHeaderSize], frame[pageHeaderSize:])
		off += frameSize
	}

	tree := btree.NewTree(pager, rootPageNum, schema.RowSize(), log)
	return &Table{Path: path, Schema: schema, Tree: tree, NumRows: numRows, log: log}, nil
}

// Drop removes a table's backing file.
func Drop(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errs.New(errs.Schema, "table file %q does not exist", path)
	}
	if err := os.Remove(path); err != nil {
		return errs.Wrap(errs.Io, err, "remove %s", path)
	}
	return nil
}

// InsertRow encodes row and stores it keyed by its primary column.
func (t *Table) InsertRow(row column.Row) error {
	key, err := column.RowKey(t.Schema, row)
	if err != nil {
		return err
	}
	buf := make([]byte, t.Schema.RowSize())
	if err := storagerow.Encode(t.Schema, row, buf); err != nil {
		return err
	}
	if err := t.Tree.Insert(key, buf); err != nil {
		return err
	}
	t.NumRows++
	return nil
}

// SelectRows returns every row in key order.
func (t *Table) SelectRows() ([]column.Row, error) {
	rows := make([]column.Row, 0, t.NumRows)
	c, err := btree.Start(t.Tree)
	if err != nil {
		return nil, err
	}
	rowSize := t.Schema.RowSize()
	for !c.EndOfTable {
		buf := make([]byte, rowSize)
		if err := c.ReadValue(buf); err != nil {
			return nil, err
		}
		row, err := storagerow.Decode(t.Schema, buf)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if err := c.Advance(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Flush writes the tablespace header and every page frame to disk.
func (t *Table) Flush() error {
	header := encodeTablespaceHeader(t.NumRows, 0, t.Tree.RootPage)
	if err := t.Tree.Pager.WriteAt(header, 0); err != nil {
		return err
	}
	if err := t.Tree.Pager.FlushAll(tablespaceHeaderSize, pageHeaderSize); err != nil {
		return err
	}
	t.log.Debug("flushed table", zap.String("path", t.Path), zap.Uint32("rows", t.NumRows))
	return nil
}

// Close flushes and closes the underlying file.
func (t *Table) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	return t.Tree.Pager.Close()
}
