package btree

import "github.com/flintdb/flintdb/internal/storage/pagecodec"

// getNodeType/setNodeType/isRoot/setIsRoot/parentPage/setParentPage are
// shared by LeafView and InternalView: both node kinds share the same
// 6-byte common header (spec section 3).

func getNodeType(buf []byte) (NodeType, error) {
	v, err := pagecodec.GetU8(buf, nodeTypeOffset)
	if err != nil {
		return 0, err
	}
	return NodeType(v), nil
}

func setNodeType(buf []byte, nt NodeType) error {
	return pagecodec.PutU8(buf, nodeTypeOffset, uint8(nt))
}

func isRoot(buf []byte) (bool, error) {
	v, err := pagecodec.GetU8(buf, isRootOffset)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func setIsRoot(buf []byte, v bool) error {
	var b uint8
	if v {
		b = 1
	}
	return pagecodec.PutU8(buf, isRootOffset, b)
}

func parentPage(buf []byte) (uint32, error) {
	return pagecodec.GetU32(buf, parentPtrOffset)
}

func setParentPage(buf []byte, p uint32) error {
	return pagecodec.PutU32(buf, parentPtrOffset, p)
}

// LeafView is a typed accessor over a leaf page's byte buffer. It holds no
// state beyond the buffer reference and row size: all reads/writes act
// directly on the underlying page, matching the "copy-in-memory" page
// model (no separate parsed in-memory cell list is kept).
type LeafView struct {
	Buf     []byte
	RowSize int
}

func (v LeafView) NodeType() (NodeType, error) { return getNodeType(v.Buf) }
func (v LeafView) SetNodeType() error          { return setNodeType(v.Buf, NodeLeaf) }
func (v LeafView) IsRoot() (bool, error)       { return isRoot(v.Buf) }
func (v LeafView) SetIsRoot(b bool) error      { return setIsRoot(v.Buf, b) }
func (v LeafView) Parent() (uint32, error)     { return parentPage(v.Buf) }
func (v LeafView) SetParent(p uint32) error    { return setParentPage(v.Buf, p) }

func (v LeafView) NumCells() (uint32, error) {
	return pagecodec.GetU32(v.Buf, leafNumCellsOffset)
}

func (v LeafView) SetNumCells(n uint32) error {
	return pagecodec.PutU32(v.Buf, leafNumCellsOffset, n)
}

func (v LeafView) NextLeaf() (uint32, error) {
	return pagecodec.GetU32(v.Buf, leafNextLeafOffset)
}

func (v LeafView) SetNextLeaf(n uint32) error {
	return pagecodec.PutU32(v.Buf, leafNextLeafOffset, n)
}

// MaxCells is how many (key, row) cells this leaf's page can hold.
func (v LeafView) MaxCells() int { return LeafMaxCells(v.RowSize) }

func (v LeafView) Key(i int) (uint32, error) {
	return pagecodec.GetU32(v.Buf, leafCellOffset(i, v.RowSize))
}

func (v LeafView) SetKey(i int, key uint32) error {
	return pagecodec.PutU32(v.Buf, leafCellOffset(i, v.RowSize), key)
}

func (v LeafView) Value(i int) ([]byte, error) {
	return pagecodec.Slice(v.Buf, leafCellOffset(i, v.RowSize)+leafKeySize, v.RowSize)
}

func (v LeafView) SetValue(i int, row []byte) error {
	dst, err := pagecodec.Slice(v.Buf, leafCellOffset(i, v.RowSize)+leafKeySize, v.RowSize)
	if err != nil {
		return err
	}
	copy(dst, row)
	return nil
}

// Cell returns the raw (key+value) bytes for cell i.
func (v LeafView) Cell(i int) ([]byte, error) {
	return pagecodec.Slice(v.Buf, leafCellOffset(i, v.RowSize), leafKeySize+v.RowSize)
}

// MoveCell copies cell src to cell dst within the same page (used during
// in-page shifts on insert).
func (v LeafView) MoveCell(dst, src int) error {
	s, err := v.Cell(src)
	if err != nil {
		return err
	}
	d, err := pagecodec.Slice(v.Buf, leafCellOffset(dst, v.RowSize), leafKeySize+v.RowSize)
	if err != nil {
		return err
	}
	tmp := make([]byte, len(s))
	copy(tmp, s)
	copy(d, tmp)
	return nil
}

// Find performs a binary search for key among this leaf's cells, returning
// the index of the first cell whose key is >= key (== NumCells if key is
// greater than every cell present).
func (v LeafView) Find(key uint32) (int, error) {
	numCells, err := v.NumCells()
	if err != nil {
		return 0, err
	}
	lo, hi := 0, int(numCells)
	for lo < hi {
		mid := (lo + hi) / 2
		k, err := v.Key(mid)
		if err != nil {
			return 0, err
		}
		if key == k {
			return mid, nil
		}
		if key < k {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// MaxKey returns the key of this leaf's last cell.
func (v LeafView) MaxKey() (uint32, error) {
	numCells, err := v.NumCells()
	if err != nil {
		return 0, err
	}
	if numCells == 0 {
		return 0, nil
	}
	return v.Key(int(numCells) - 1)
}

// InternalView is a typed accessor over an internal (interior) page.
type InternalView struct {
	Buf []byte
}

func (v InternalView) NodeType() (NodeType, error) { return getNodeType(v.Buf) }
func (v InternalView) SetNodeType() error          { return setNodeType(v.Buf, NodeInternal) }
func (v InternalView) IsRoot() (bool, error)       { return isRoot(v.Buf) }
func (v InternalView) SetIsRoot(b bool) error      { return setIsRoot(v.Buf, b) }
func (v InternalView) Parent() (uint32, error)     { return parentPage(v.Buf) }
func (v InternalView) SetParent(p uint32) error    { return setParentPage(v.Buf, p) }

func (v InternalView) NumKeys() (uint32, error) {
	return pagecodec.GetU32(v.Buf, internalNumKeysOffset)
}

func (v InternalView) SetNumKeys(n uint32) error {
	return pagecodec.PutU32(v.Buf, internalNumKeysOffset, n)
}

func (v InternalView) RightChild() (uint32, error) {
	return pagecodec.GetU32(v.Buf, internalRightChildOffset)
}

func (v InternalView) SetRightChild(p uint32) error {
	return pagecodec.PutU32(v.Buf, internalRightChildOffset, p)
}

func (v InternalView) Key(i int) (uint32, error) {
	return pagecodec.GetU32(v.Buf, internalCellOffset(i)+4)
}

func (v InternalView) SetKey(i int, key uint32) error {
	return pagecodec.PutU32(v.Buf, internalCellOffset(i)+4, key)
}

func (v InternalView) childAt(i int) (uint32, error) {
	return pagecodec.GetU32(v.Buf, internalCellOffset(i))
}

func (v InternalView) setChildAt(i int, p uint32) error {
	return pagecodec.PutU32(v.Buf, internalCellOffset(i), p)
}

// Child returns the child page number at slot i. i == NumKeys addresses
// the right child.
func (v InternalView) Child(i int) (uint32, error) {
	numKeys, err := v.NumKeys()
	if err != nil {
		return 0, err
	}
	if i == int(numKeys) {
		return v.RightChild()
	}
	return v.childAt(i)
}

// SetChild sets the child page number at slot i. i == NumKeys addresses
// the right child.
func (v InternalView) SetChild(i int, p uint32) error {
	numKeys, err := v.NumKeys()
	if err != nil {
		return err
	}
	if i == int(numKeys) {
		return v.SetRightChild(p)
	}
	return v.setChildAt(i, p)
}

// MoveCell copies internal cell src to cell dst within the same page.
func (v InternalView) MoveCell(dst, src int) error {
	child, err := v.childAt(src)
	if err != nil {
		return err
	}
	key, err := v.Key(src)
	if err != nil {
		return err
	}
	if err := v.setChildAt(dst, child); err != nil {
		return err
	}
	return v.SetKey(dst, key)
}

// FindChild performs a binary search for which child subtree may contain
// key: the first i such that key <= Key(i), or NumKeys (the right child)
// if key exceeds every stored key.
func (v InternalView) FindChild(key uint32) (int, error) {
	numKeys, err := v.NumKeys()
	if err != nil {
		return 0, err
	}
	lo, hi := 0, int(numKeys)
	for lo < hi {
		mid := (lo + hi) / 2
		k, err := v.Key(mid)
		if err != nil {
			return 0, err
		}
		if key <= k {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// UpdateKey overwrites the key at FindChild(oldKey) with newKey. If oldKey
// is present that is its own cell. If oldKey exceeds every stored key,
// FindChild returns NumKeys and newKey lands in the unused cell slot just
// past the last key; no error is returned for this miss.
func (v InternalView) UpdateKey(oldKey, newKey uint32) error {
	i, err := v.FindChild(oldKey)
	if err != nil {
		return err
	}
	return v.SetKey(i, newKey)
}
