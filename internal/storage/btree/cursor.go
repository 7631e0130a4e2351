package btree

// Cursor is a transient position (page_num, cell_num, end_of_table) over a
// table's leaf chain, per spec section 4.4.
type Cursor struct {
	tree       *Tree
	PageNum    uint32
	CellNum    int
	EndOfTable bool
}

// Start positions a cursor at the first cell of the leftmost leaf.
func Start(t *Tree) (*Cursor, error) {
	return Find(t, 0)
}

// Find descends from the root to the leaf that holds, or would hold, key,
// and positions the cursor at the matching or insertion-point cell.
func Find(t *Tree, key uint32) (*Cursor, error) {
	leafPageNum, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}
	page, err := t.Pager.Acquire(leafPageNum)
	if err != nil {
		return nil, err
	}
	view := LeafView{Buf: page.Data[:], RowSize: t.RowSize}
	idx, err := view.Find(key)
	if err != nil {
		t.Pager.Release(leafPageNum)
		return nil, err
	}
	numCells, err := view.NumCells()
	t.Pager.Release(leafPageNum)
	if err != nil {
		return nil, err
	}
	return &Cursor{tree: t, PageNum: leafPageNum, CellNum: idx, EndOfTable: numCells == 0}, nil
}

// ReadValue copies the current cell's row bytes into dst.
func (c *Cursor) ReadValue(dst []byte) error {
	page, err := c.tree.Pager.Acquire(c.PageNum)
	if err != nil {
		return err
	}
	defer c.tree.Pager.Release(c.PageNum)
	view := LeafView{Buf: page.Data[:], RowSize: c.tree.RowSize}
	v, err := view.Value(c.CellNum)
	if err != nil {
		return err
	}
	copy(dst, v)
	return nil
}

// Key returns the current cell's key.
func (c *Cursor) Key() (uint32, error) {
	page, err := c.tree.Pager.Acquire(c.PageNum)
	if err != nil {
		return 0, err
	}
	defer c.tree.Pager.Release(c.PageNum)
	view := LeafView{Buf: page.Data[:], RowSize: c.tree.RowSize}
	return view.Key(c.CellNum)
}

// Advance moves the cursor to the next cell, following next_leaf when the
// current leaf is exhausted, and marking EndOfTable once the chain ends.
func (c *Cursor) Advance() error {
	page, err := c.tree.Pager.Acquire(c.PageNum)
	if err != nil {
		return err
	}
	view := LeafView{Buf: page.Data[:], RowSize: c.tree.RowSize}
	numCells, err := view.NumCells()
	if err != nil {
		c.tree.Pager.Release(c.PageNum)
		return err
	}
	c.CellNum++
	if c.CellNum < int(numCells) {
		c.tree.Pager.Release(c.PageNum)
		return nil
	}
	next, err := view.NextLeaf()
	c.tree.Pager.Release(c.PageNum)
	if err != nil {
		return err
	}
	if next == 0 {
		c.EndOfTable = true
		return nil
	}
	c.PageNum = next
	c.CellNum = 0
	return nil
}
