// Package btree implements flintdb's paged, copy-in-memory B+-tree: the
// node codec (LeafView/InternalView), the Pager's page-borrow discipline,
// the Cursor, and the insert/split/root-promotion operations themselves.
package btree

import (
	"github.com/flintdb/flintdb/internal/errs"
	"go.uber.org/zap"
)

// Tree is one table's B+-tree: a Pager plus the page number of the current
// root (root_page_num is stable for the life of the table — see
// DESIGN.md's resolution of Open Question (a)).
type Tree struct {
	Pager    *Pager
	RootPage uint32
	RowSize  int
	log      *zap.Logger
}

// NewTree wraps an existing pager as a B+-tree rooted at rootPage.
func NewTree(pager *Pager, rootPage uint32, rowSize int, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{Pager: pager, RootPage: rootPage, RowSize: rowSize, log: log}
}

// InitEmptyRoot allocates page 0 as an empty leaf root, used when creating
// a brand-new table.
func (t *Tree) InitEmptyRoot() error {
	page, err := t.Pager.Allocate()
	if err != nil {
		return err
	}
	defer t.Pager.Release(page.Num)
	v := LeafView{Buf: page.Data[:], RowSize: t.RowSize}
	if err := v.SetNodeType(); err != nil {
		return err
	}
	if err := v.SetIsRoot(true); err != nil {
		return err
	}
	if err := v.SetNumCells(0); err != nil {
		return err
	}
	return v.SetNextLeaf(0)
}

func (t *Tree) nodeType(pageNum uint32) (NodeType, error) {
	page, err := t.Pager.Acquire(pageNum)
	if err != nil {
		return 0, err
	}
	defer t.Pager.Release(pageNum)
	return getNodeType(page.Data[:])
}

// GetMaxKey returns the true maximum key stored under pageNum: the last
// leaf cell's key, or (recursively) the max under the rightmost child of
// an internal node.
func (t *Tree) GetMaxKey(pageNum uint32) (uint32, error) {
	page, err := t.Pager.Acquire(pageNum)
	if err != nil {
		return 0, err
	}
	nt, err := getNodeType(page.Data[:])
	if err != nil {
		t.Pager.Release(pageNum)
		return 0, err
	}
	if nt == NodeLeaf {
		v := LeafView{Buf: page.Data[:], RowSize: t.RowSize}
		k, err := v.MaxKey()
		t.Pager.Release(pageNum)
		return k, err
	}
	iv := InternalView{Buf: page.Data[:]}
	rc, err := iv.RightChild()
	t.Pager.Release(pageNum)
	if err != nil {
		return 0, err
	}
	if rc == InvalidPageNum {
		return 0, errs.New(errs.Storage, "internal node %d has no right child", pageNum)
	}
	return t.GetMaxKey(rc)
}

// findLeaf descends from the root to the leaf page that holds, or would
// hold, key.
func (t *Tree) findLeaf(key uint32) (uint32, error) {
	page := t.RootPage
	for {
		p, err := t.Pager.Acquire(page)
		if err != nil {
			return 0, err
		}
		nt, err := getNodeType(p.Data[:])
		if err != nil {
			t.Pager.Release(page)
			return 0, err
		}
		if nt == NodeLeaf {
			t.Pager.Release(page)
			return page, nil
		}
		iv := InternalView{Buf: p.Data[:]}
		idx, err := iv.FindChild(key)
		if err != nil {
			t.Pager.Release(page)
			return 0, err
		}
		child, err := iv.Child(idx)
		t.Pager.Release(page)
		if err != nil {
			return 0, err
		}
		if child == InvalidPageNum {
			return 0, errs.New(errs.Storage, "dereferenced invalid page number while descending for key %d", key)
		}
		page = child
	}
}

// Insert stores one (key, encoded row) pair, splitting and promoting
// nodes as necessary. It fails with a Storage error on a duplicate key.
func (t *Tree) Insert(key uint32, row []byte) error {
	if len(row) != t.RowSize {
		return errs.New(errs.Encoding, "row is %d bytes, expected %d", len(row), t.RowSize)
	}
	leafPage, err := t.findLeaf(key)
	if err != nil {
		return err
	}
	return t.leafInsert(leafPage, key, row)
}

func (t *Tree) leafInsert(pageNum uint32, key uint32, value []byte) error {
	page, err := t.Pager.Acquire(pageNum)
	if err != nil {
		return err
	}
	view := LeafView{Buf: page.Data[:], RowSize: t.RowSize}
	numCells, err := view.NumCells()
	if err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	idx, err := view.Find(key)
	if err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	if idx < int(numCells) {
		existing, err := view.Key(idx)
		if err != nil {
			t.Pager.Release(pageNum)
			return err
		}
		if existing == key {
			t.Pager.Release(pageNum)
			return errs.New(errs.Storage, "duplicate key %d", key)
		}
	}
	if int(numCells) >= view.MaxCells() {
		t.Pager.Release(pageNum)
		return t.leafSplitInsert(pageNum, idx, key, value)
	}
	for i := int(numCells); i > idx; i-- {
		if err := view.MoveCell(i, i-1); err != nil {
			t.Pager.Release(pageNum)
			return err
		}
	}
	if err := view.SetKey(idx, key); err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	if err := view.SetValue(idx, value); err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	err = view.SetNumCells(numCells + 1)
	t.Pager.Release(pageNum)
	return err
}

type leafCell struct {
	key   uint32
	value []byte
}

// leafSplitInsert implements spec section 4.5's "Leaf split-and-insert":
// the old page's cells plus the candidate new cell are treated as a
// virtual array of max_cells+1 entries and redivided across the old page
// (kept in place) and a freshly allocated sibling.
func (t *Tree) leafSplitInsert(pageNum uint32, insertIdx int, key uint32, value []byte) error {
	page, err := t.Pager.Acquire(pageNum)
	if err != nil {
		return err
	}
	view := LeafView{Buf: page.Data[:], RowSize: t.RowSize}
	maxCells := view.MaxCells()
	origNum, err := view.NumCells()
	if err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	wasRoot, err := view.IsRoot()
	if err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	parentOfLeaf, err := view.Parent()
	if err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	oldNextLeaf, err := view.NextLeaf()
	if err != nil {
		t.Pager.Release(pageNum)
		return err
	}

	cells := make([]leafCell, maxCells+1)
	j := 0
	for i := 0; i < int(origNum); i++ {
		if i == insertIdx {
			cells[j] = leafCell{key, value}
			j++
		}
		k, err := view.Key(i)
		if err != nil {
			t.Pager.Release(pageNum)
			return err
		}
		v, err := view.Value(i)
		if err != nil {
			t.Pager.Release(pageNum)
			return err
		}
		vcopy := make([]byte, len(v))
		copy(vcopy, v)
		cells[j] = leafCell{k, vcopy}
		j++
	}
	if insertIdx == int(origNum) {
		cells[maxCells] = leafCell{key, value}
	}
	t.Pager.Release(pageNum)

	leftCount := LeafLeftSplitCount(maxCells)
	rightCount := LeafRightSplitCount(maxCells)

	rightPage, err := t.Pager.Allocate()
	if err != nil {
		return err
	}
	rightPageNum := rightPage.Num
	rightView := LeafView{Buf: rightPage.Data[:], RowSize: t.RowSize}
	if err := rightView.SetNodeType(); err != nil {
		return err
	}
	if err := rightView.SetIsRoot(false); err != nil {
		return err
	}
	if err := rightView.SetNextLeaf(oldNextLeaf); err != nil {
		return err
	}
	if err := rightView.SetNumCells(uint32(rightCount)); err != nil {
		return err
	}
	if err := rightView.SetParent(parentOfLeaf); err != nil {
		return err
	}
	for i := 0; i < rightCount; i++ {
		c := cells[leftCount+i]
		if err := rightView.SetKey(i, c.key); err != nil {
			return err
		}
		if err := rightView.SetValue(i, c.value); err != nil {
			return err
		}
	}
	t.Pager.Release(rightPageNum)

	leftPage, err := t.Pager.Acquire(pageNum)
	if err != nil {
		return err
	}
	leftView := LeafView{Buf: leftPage.Data[:], RowSize: t.RowSize}
	if err := leftView.SetNumCells(uint32(leftCount)); err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	for i := 0; i < leftCount; i++ {
		c := cells[i]
		if err := leftView.SetKey(i, c.key); err != nil {
			t.Pager.Release(pageNum)
			return err
		}
		if err := leftView.SetValue(i, c.value); err != nil {
			t.Pager.Release(pageNum)
			return err
		}
	}
	if err := leftView.SetNextLeaf(rightPageNum); err != nil {
		t.Pager.Release(pageNum)
		return err
	}
	t.Pager.Release(pageNum)

	oldMax := cells[maxCells].key // the overall max before the split, now in the right sibling
	leftMax := cells[leftCount-1].key

	t.log.Debug("leaf split", zap.Uint32("old", pageNum), zap.Uint32("new", rightPageNum))

	if wasRoot {
		return t.createNewRoot(pageNum, rightPageNum)
	}

	if err := t.updateParentKey(parentOfLeaf, oldMax, leftMax); err != nil {
		return err
	}
	return t.internalInsert(parentOfLeaf, rightPageNum, oldMax)
}

// createNewRoot implements spec section 4.5's "Create-new-root": the
// current root's bytes are copied verbatim to a freshly allocated left
// child, the left child's is_root flag is cleared (and, if it is an
// internal node, its children are reparented to it), and the original
// root page is rewritten in place as a new internal node with one key.
// The root page number never changes for the life of the table.
func (t *Tree) createNewRoot(rootPageNum, rightChild uint32) error {
	rootPage, err := t.Pager.Acquire(rootPageNum)
	if err != nil {
		return err
	}
	rootBytes := make([]byte, PageSize)
	copy(rootBytes, rootPage.Data[:])
	t.Pager.Release(rootPageNum)

	leftPage, err := t.Pager.Allocate()
	if err != nil {
		return err
	}
	leftNum := leftPage.Num
	copy(leftPage.Data[:], rootBytes)
	if err := setIsRoot(leftPage.Data[:], false); err != nil {
		t.Pager.Release(leftNum)
		return err
	}
	nt, err := getNodeType(leftPage.Data[:])
	if err != nil {
		t.Pager.Release(leftNum)
		return err
	}
	if nt == NodeInternal {
		iv := InternalView{Buf: leftPage.Data[:]}
		numKeys, err := iv.NumKeys()
		if err != nil {
			t.Pager.Release(leftNum)
			return err
		}
		children := make([]uint32, 0, numKeys+1)
		for i := 0; i <= int(numKeys); i++ {
			c, err := iv.Child(i)
			if err != nil {
				t.Pager.Release(leftNum)
				return err
			}
			children = append(children, c)
		}
		t.Pager.Release(leftNum)
		for _, c := range children {
			cp, err := t.Pager.Acquire(c)
			if err != nil {
				return err
			}
			if err := setParentPage(cp.Data[:], leftNum); err != nil {
				t.Pager.Release(c)
				return err
			}
			t.Pager.Release(c)
		}
	} else {
		t.Pager.Release(leftNum)
	}

	leftMax, err := t.GetMaxKey(leftNum)
	if err != nil {
		return err
	}

	rootPage2, err := t.Pager.Acquire(rootPageNum)
	if err != nil {
		return err
	}
	for i := range rootPage2.Data {
		rootPage2.Data[i] = 0
	}
	riv := InternalView{Buf: rootPage2.Data[:]}
	if err := riv.SetNodeType(); err != nil {
		t.Pager.Release(rootPageNum)
		return err
	}
	if err := riv.SetIsRoot(true); err != nil {
		t.Pager.Release(rootPageNum)
		return err
	}
	if err := riv.SetNumKeys(1); err != nil {
		t.Pager.Release(rootPageNum)
		return err
	}
	if err := riv.setChildAt(0, leftNum); err != nil {
		t.Pager.Release(rootPageNum)
		return err
	}
	if err := riv.SetKey(0, leftMax); err != nil {
		t.Pager.Release(rootPageNum)
		return err
	}
	if err := riv.SetRightChild(rightChild); err != nil {
		t.Pager.Release(rootPageNum)
		return err
	}
	t.Pager.Release(rootPageNum)

	lp, err := t.Pager.Acquire(leftNum)
	if err != nil {
		return err
	}
	if err := setParentPage(lp.Data[:], rootPageNum); err != nil {
		t.Pager.Release(leftNum)
		return err
	}
	t.Pager.Release(leftNum)

	rp, err := t.Pager.Acquire(rightChild)
	if err != nil {
		return err
	}
	if err := setParentPage(rp.Data[:], rootPageNum); err != nil {
		t.Pager.Release(rightChild)
		return err
	}
	t.Pager.Release(rightChild)

	t.log.Debug("promoted new root", zap.Uint32("root", rootPageNum), zap.Uint32("left", leftNum), zap.Uint32("right", rightChild))
	return nil
}

// updateParentKey tightens the cached bound for a child whose max key just
// shrank from oldKey to newKey after a split. When the split child is the
// parent's right child, no cell records oldKey: the write lands in the
// unused slot at NumKeys (see InternalView.UpdateKey) and the following
// internalInsert sets that slot's child and key.
func (t *Tree) updateParentKey(parentPageNum, oldKey, newKey uint32) error {
	p, err := t.Pager.Acquire(parentPageNum)
	if err != nil {
		return err
	}
	iv := InternalView{Buf: p.Data[:]}
	err = iv.UpdateKey(oldKey, newKey)
	t.Pager.Release(parentPageNum)
	return err
}

// internalInsert implements spec section 4.5's "Internal-insert": insert a
// new child subtree (identified by its max key) into parent, delegating to
// internalSplitInsert on overflow.
func (t *Tree) internalInsert(parentPageNum, childPageNum uint32, childMaxKeyHint uint32) error {
	kChild, err := t.GetMaxKey(childPageNum)
	if err != nil {
		return err
	}
	_ = childMaxKeyHint // recomputed via GetMaxKey to always reflect current content

	p, err := t.Pager.Acquire(parentPageNum)
	if err != nil {
		return err
	}
	iv := InternalView{Buf: p.Data[:]}
	numKeys, err := iv.NumKeys()
	if err != nil {
		t.Pager.Release(parentPageNum)
		return err
	}
	if int(numKeys) == InternalMaxCells {
		t.Pager.Release(parentPageNum)
		return t.internalSplitInsert(parentPageNum, childPageNum)
	}

	rightChild, err := iv.RightChild()
	if err != nil {
		t.Pager.Release(parentPageNum)
		return err
	}
	if rightChild == InvalidPageNum {
		if err := iv.SetRightChild(childPageNum); err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
		t.Pager.Release(parentPageNum)
		return t.setParent(childPageNum, parentPageNum)
	}
	t.Pager.Release(parentPageNum)

	rightChildMax, err := t.GetMaxKey(rightChild)
	if err != nil {
		return err
	}

	p2, err := t.Pager.Acquire(parentPageNum)
	if err != nil {
		return err
	}
	iv2 := InternalView{Buf: p2.Data[:]}
	if kChild > rightChildMax {
		if err := iv2.setChildAt(int(numKeys), rightChild); err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
		if err := iv2.SetKey(int(numKeys), rightChildMax); err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
		if err := iv2.SetRightChild(childPageNum); err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
	} else {
		idx, err := iv2.FindChild(kChild)
		if err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
		for i := int(numKeys); i > idx; i-- {
			if err := iv2.MoveCell(i, i-1); err != nil {
				t.Pager.Release(parentPageNum)
				return err
			}
		}
		if err := iv2.setChildAt(idx, childPageNum); err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
		if err := iv2.SetKey(idx, kChild); err != nil {
			t.Pager.Release(parentPageNum)
			return err
		}
	}
	err = iv2.SetNumKeys(numKeys + 1)
	t.Pager.Release(parentPageNum)
	if err != nil {
		return err
	}
	return t.setParent(childPageNum, parentPageNum)
}

func (t *Tree) setParent(pageNum, parentPageNum uint32) error {
	p, err := t.Pager.Acquire(pageNum)
	if err != nil {
		return err
	}
	err = setParentPage(p.Data[:], parentPageNum)
	t.Pager.Release(pageNum)
	return err
}

// internalSplitInsert implements spec section 4.5's "Internal-split".
func (t *Tree) internalSplitInsert(parentPageNum, childPageNum uint32) error {
	oldMax, err := t.GetMaxKey(parentPageNum)
	if err != nil {
		return err
	}
	childMax, err := t.GetMaxKey(childPageNum)
	if err != nil {
		return err
	}

	p, err := t.Pager.Acquire(parentPageNum)
	if err != nil {
		return err
	}
	iv := InternalView{Buf: p.Data[:]}
	splittingRoot, err := iv.IsRoot()
	if err != nil {
		t.Pager.Release(parentPageNum)
		return err
	}
	oldParentOfParent, err := iv.Parent()
	if err != nil {
		t.Pager.Release(parentPageNum)
		return err
	}
	numKeys, err := iv.NumKeys()
	if err != nil {
		t.Pager.Release(parentPageNum)
		return err
	}
	oldRightChild, err := iv.RightChild()
	if err != nil {
		t.Pager.Release(parentPageNum)
		return err
	}
	t.Pager.Release(parentPageNum)

	siblingPage, err := t.Pager.Allocate()
	if err != nil {
		return err
	}
	siblingNum := siblingPage.Num
	siv := InternalView{Buf: siblingPage.Data[:]}
	if err := siv.SetNodeType(); err != nil {
		return err
	}
	if err := siv.SetIsRoot(false); err != nil {
		return err
	}
	if err := siv.SetNumKeys(0); err != nil {
		return err
	}
	if err := siv.SetRightChild(InvalidPageNum); err != nil {
		return err
	}
	if !splittingRoot {
		if err := siv.SetParent(oldParentOfParent); err != nil {
			return err
		}
	}
	t.Pager.Release(siblingNum)

	effectiveParent := parentPageNum
	if splittingRoot {
		// Create-new-root runs first (Open Question (b)): the remainder of
		// this split continues against the new left-child page, while the
		// original page number becomes the new root.
		if err := t.createNewRoot(parentPageNum, siblingNum); err != nil {
			return err
		}
		leftPage, err := t.findLeftChildOfRoot(parentPageNum)
		if err != nil {
			return err
		}
		effectiveParent = leftPage
	}

	// Step 4: move parent's existing right_child to the sibling.
	if err := t.setParent(oldRightChild, siblingNum); err != nil {
		return err
	}
	p2, err := t.Pager.Acquire(effectiveParent)
	if err != nil {
		return err
	}
	iv2 := InternalView{Buf: p2.Data[:]}
	if err := iv2.SetRightChild(InvalidPageNum); err != nil {
		t.Pager.Release(effectiveParent)
		return err
	}
	t.Pager.Release(effectiveParent)
	if err := t.internalInsertEmptyAware(siblingNum, oldRightChild); err != nil {
		return err
	}

	// Step 5: detach the top cell(s) of the (now right_child-less) parent
	// and fold them into the sibling. With INTERNAL_NODE_MAX_CELLS == 3
	// this is exactly the single topmost remaining keyed cell.
	for i := int(numKeys) - 1; i >= InternalMaxCells/2+1; i-- {
		p3, err := t.Pager.Acquire(effectiveParent)
		if err != nil {
			return err
		}
		iv3 := InternalView{Buf: p3.Data[:]}
		detachedChild, err := iv3.childAt(i)
		if err != nil {
			t.Pager.Release(effectiveParent)
			return err
		}
		curNumKeys, err := iv3.NumKeys()
		if err != nil {
			t.Pager.Release(effectiveParent)
			return err
		}
		if err := iv3.SetNumKeys(curNumKeys - 1); err != nil {
			t.Pager.Release(effectiveParent)
			return err
		}
		t.Pager.Release(effectiveParent)
		if err := t.internalInsertEmptyAware(siblingNum, detachedChild); err != nil {
			return err
		}
	}

	// Step 6: promote the parent's last remaining keyed cell into its
	// right_child slot.
	p4, err := t.Pager.Acquire(effectiveParent)
	if err != nil {
		return err
	}
	iv4 := InternalView{Buf: p4.Data[:]}
	remainingKeys, err := iv4.NumKeys()
	if err != nil {
		t.Pager.Release(effectiveParent)
		return err
	}
	lastChild, err := iv4.childAt(int(remainingKeys) - 1)
	if err != nil {
		t.Pager.Release(effectiveParent)
		return err
	}
	if err := iv4.SetRightChild(lastChild); err != nil {
		t.Pager.Release(effectiveParent)
		return err
	}
	if err := iv4.SetNumKeys(remainingKeys - 1); err != nil {
		t.Pager.Release(effectiveParent)
		return err
	}
	t.Pager.Release(effectiveParent)

	// Step 7: place the original new child into whichever of
	// {parent, sibling} now covers its key range.
	parentNewMax, err := t.GetMaxKey(effectiveParent)
	if err != nil {
		return err
	}
	destination := effectiveParent
	if childMax >= parentNewMax {
		destination = siblingNum
	}
	if err := t.internalInsertEmptyAware(destination, childPageNum); err != nil {
		return err
	}

	// Step 8: tighten the grand-parent's cached bound for parent/root.
	grandParent := oldParentOfParent
	finalMax, err := t.GetMaxKey(effectiveParent)
	if err != nil {
		return err
	}
	if splittingRoot {
		// The new root's key[0] was seeded with the pre-shrink max by
		// createNewRoot; tighten it to the true post-split max.
		return t.updateParentKey(parentPageNum, oldMax, finalMax)
	}
	return t.updateParentKey(grandParent, oldMax, finalMax)
}

// internalInsertEmptyAware is internalInsert without a max-key hint, used
// by internalSplitInsert while it assembles the parent and sibling pages.
// It runs internalInsert's full logic, including the overflow check that
// delegates to internalSplitInsert.
func (t *Tree) internalInsertEmptyAware(parentPageNum, childPageNum uint32) error {
	return t.internalInsert(parentPageNum, childPageNum, 0)
}

// findLeftChildOfRoot returns createNewRoot's freshly created left child
// (root's cell 0), used by internalSplitInsert to retarget its in-progress
// split after a root promotion.
func (t *Tree) findLeftChildOfRoot(rootPageNum uint32) (uint32, error) {
	p, err := t.Pager.Acquire(rootPageNum)
	if err != nil {
		return 0, err
	}
	iv := InternalView{Buf: p.Data[:]}
	c, err := iv.childAt(0)
	t.Pager.Release(rootPageNum)
	return c, err
}
