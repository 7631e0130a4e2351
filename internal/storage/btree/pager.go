package btree

import (
	"os"

	"github.com/flintdb/flintdb/internal/errs"
	"go.uber.org/zap"
)

// Page is one in-memory page buffer. Pages are never freed once allocated
// (spec section 4: no page recycling). Header holds the caller's raw
// per-page bookkeeping bytes (the 28-byte reserved header in
// internal/storage/table): round-tripped verbatim through
// LoadFromDisk/FlushAll, never interpreted here. It is nil for a page
// that was Allocate()'d and never loaded from disk, in which case
// FlushAll writes it out as zeros.
type Page struct {
	Num    uint32
	Data   [PageSize]byte
	Header []byte
}

// Pager owns a table's array of in-memory page buffers and enforces the
// exclusive-borrow discipline described in spec section 5: a page must be
// explicitly Acquired before it is read or mutated, and a second Acquire
// of an already-borrowed page is a LockTable error, not something to wait
// on, since this engine is single-threaded and cooperative.
type Pager struct {
	file     *os.File
	pages    []*Page
	borrowed map[uint32]bool
	log      *zap.Logger
}

// OpenPager opens (creating if absent) the backing file and returns a
// pager holding no pages, together with the file's current size. It does
// not read the file: the caller loads existing frames with LoadFromDisk.
// headerSize is accepted but not used.
func OpenPager(path string, headerSize int, log *zap.Logger) (*Pager, int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, 0, errs.Wrap(errs.Io, err, "open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errs.Wrap(errs.Io, err, "stat %s", path)
	}
	p := &Pager{file: f, borrowed: make(map[uint32]bool), log: log}
	return p, info.Size(), nil
}

// NumPages is the count of page frames currently held in memory.
func (p *Pager) NumPages() uint32 { return uint32(len(p.pages)) }

// Acquire borrows page n exclusively. n must already exist (use Allocate
// to grow the table). A second Acquire of the same page before Release is
// a fatal LockTable error.
func (p *Pager) Acquire(n uint32) (*Page, error) {
	if n >= p.NumPages() {
		return nil, errs.New(errs.Storage, "page %d does not exist (have %d pages)", n, p.NumPages())
	}
	if p.borrowed[n] {
		return nil, errs.New(errs.LockTable, "page %d is already borrowed", n)
	}
	p.borrowed[n] = true
	return p.pages[n], nil
}

// Release ends an exclusive borrow of page n.
func (p *Pager) Release(n uint32) {
	delete(p.borrowed, n)
}

// Allocate appends a new zeroed page frame and returns it, already
// borrowed by the caller (mirrors the common pattern of allocating a page
// in order to immediately initialize it).
func (p *Pager) Allocate() (*Page, error) {
	n := p.NumPages()
	if n >= TableMaxPages {
		return nil, errs.New(errs.Storage, "table full: reached the maximum of %d pages", TableMaxPages)
	}
	pg := &Page{Num: n}
	p.pages = append(p.pages, pg)
	p.borrowed[n] = true
	p.log.Debug("allocated page", zap.Uint32("page", n))
	return pg, nil
}

// LoadFromDisk appends a page frame whose header and body bytes are taken
// from disk verbatim, used while reading an existing table file frame by
// frame. header is retained as-is and written back unchanged by FlushAll.
func (p *Pager) LoadFromDisk(header, body []byte) *Page {
	pg := &Page{Num: p.NumPages(), Header: append([]byte(nil), header...)}
	copy(pg.Data[:], body)
	p.pages = append(p.pages, pg)
	return pg
}

// FlushAll writes every page frame to disk at the given body offset (the
// byte offset of page 0's frame, i.e. immediately after the tablespace
// header). Each page's bookkeeping header is written back exactly as it
// was loaded (or as zeros, for a page that was Allocate()'d and never
// carried a loaded header), preserving whatever reserved bytes the caller
// never interprets.
func (p *Pager) FlushAll(bodyOffset int64, headerSize int) error {
	frameSize := int64(headerSize + PageSize)
	for _, pg := range p.pages {
		off := bodyOffset + int64(pg.Num)*frameSize
		header := pg.Header
		if header == nil {
			header = make([]byte, headerSize)
		}
		buf := make([]byte, 0, frameSize)
		buf = append(buf, header...)
		buf = append(buf, pg.Data[:]...)
		if _, err := p.file.WriteAt(buf, off); err != nil {
			return errs.Wrap(errs.Io, err, "flush page %d", pg.Num)
		}
	}
	if err := p.file.Sync(); err != nil {
		return errs.Wrap(errs.Io, err, "sync")
	}
	p.log.Debug("flushed pager", zap.Uint32("pages", p.NumPages()))
	return nil
}

// WriteAt writes raw bytes directly at a file offset (used for the
// tablespace header).
func (p *Pager) WriteAt(buf []byte, off int64) error {
	if _, err := p.file.WriteAt(buf, off); err != nil {
		return errs.Wrap(errs.Io, err, "write at %d", off)
	}
	return nil
}

// ReadAt reads len(buf) bytes at a file offset.
func (p *Pager) ReadAt(buf []byte, off int64) (int, error) {
	n, err := p.file.ReadAt(buf, off)
	return n, err
}

// Close closes the backing file. It writes no pages; call FlushAll first.
func (p *Pager) Close() error {
	if err := p.file.Close(); err != nil {
		return errs.Wrap(errs.Io, err, "close")
	}
	return nil
}
