package form

import (
	types "github.com/aaarash/nemo/pkg/form/types"
)

// InsertItem adds an item under its ParentID at the position implied by its
// Rank (clamped to the sibling count), then renumbers only that sibling set.
func (t *Tree) InsertItem(item types.FormItem) error {
	if item.ID == "" {
		return &StructuralError{Msg: "form item without id"}
	}
	if _, dup := t.indexByID[item.ID]; dup {
		return &StructuralError{ItemID: item.ID, Msg: "duplicate item id"}
	}
	parentIdx := 0
	if item.ParentID != "" {
		idx, err := t.mustIndex(item.ParentID)
		if err != nil {
			return &StructuralError{ItemID: item.ID, Msg: "orphaned ancestry: unknown parent " + item.ParentID}
		}
		if !t.nodes[idx].item.IsGroup() {
			return &StructuralError{ItemID: item.ID, Msg: "parent is not a group"}
		}
		parentIdx = idx
	}

	newIdx := len(t.nodes)
	t.nodes = append(t.nodes, node{item: item, parent: parentIdx})
	t.indexByID[item.ID] = newIdx

	siblings := t.nodes[parentIdx].children
	pos := item.Rank - 1
	if pos < 0 || pos > len(siblings) {
		pos = len(siblings)
	}
	siblings = append(siblings, 0)
	copy(siblings[pos+1:], siblings[pos:])
	siblings[pos] = newIdx
	t.nodes[parentIdx].children = siblings

	t.renumber(parentIdx)
	t.refreshOrder()
	return nil
}

// MoveItem reparents an item (with its whole subtree) to newParentID at the
// 1-based newRank. Only the old and new sibling sets are renumbered; the
// relative order of unaffected siblings is preserved.
func (t *Tree) MoveItem(id, newParentID string, newRank int) error {
	idx, err := t.mustIndex(id)
	if err != nil {
		return &StructuralError{ItemID: id, Msg: "unknown item"}
	}
	newParentIdx := 0
	if newParentID != "" {
		pIdx, err := t.mustIndex(newParentID)
		if err != nil {
			return &StructuralError{ItemID: id, Msg: "unknown parent " + newParentID}
		}
		if !t.nodes[pIdx].item.IsGroup() {
			return &StructuralError{ItemID: id, Msg: "parent is not a group"}
		}
		newParentIdx = pIdx
	}
	// Reject moves into the item's own subtree.
	for p := newParentIdx; p > 0; p = t.nodes[p].parent {
		if p == idx {
			return &StructuralError{ItemID: id, Msg: "cannot move item into its own subtree"}
		}
	}

	oldParentIdx := t.nodes[idx].parent
	t.detachChild(oldParentIdx, idx)

	siblings := t.nodes[newParentIdx].children
	pos := newRank - 1
	if pos < 0 || pos > len(siblings) {
		pos = len(siblings)
	}
	siblings = append(siblings, 0)
	copy(siblings[pos+1:], siblings[pos:])
	siblings[pos] = idx
	t.nodes[newParentIdx].children = siblings
	t.nodes[idx].parent = newParentIdx
	t.nodes[idx].item.ParentID = newParentID

	t.renumber(oldParentIdx)
	if newParentIdx != oldParentIdx {
		t.renumber(newParentIdx)
	}
	t.refreshOrder()
	return nil
}

// RemoveItem detaches an item and its subtree from the form and renumbers
// the remaining siblings.
func (t *Tree) RemoveItem(id string) error {
	idx, err := t.mustIndex(id)
	if err != nil {
		return &StructuralError{ItemID: id, Msg: "unknown item"}
	}
	parentIdx := t.nodes[idx].parent
	t.detachChild(parentIdx, idx)
	t.dropSubtree(idx)
	t.renumber(parentIdx)
	t.refreshOrder()
	return nil
}

func (t *Tree) detachChild(parentIdx, childIdx int) {
	siblings := t.nodes[parentIdx].children
	for i, c := range siblings {
		if c == childIdx {
			t.nodes[parentIdx].children = append(siblings[:i], siblings[i+1:]...)
			return
		}
	}
}

// dropSubtree removes all id index entries under idx. Arena slots stay
// allocated but unreachable; the tree is rebuilt from the form on load, so
// compaction is not needed here.
func (t *Tree) dropSubtree(idx int) {
	delete(t.indexByID, t.nodes[idx].item.ID)
	for _, c := range t.nodes[idx].children {
		t.dropSubtree(c)
	}
	t.nodes[idx].children = nil
}

// renumber densely re-ranks one sibling set, preserving relative order.
func (t *Tree) renumber(parentIdx int) {
	for i, c := range t.nodes[parentIdx].children {
		t.nodes[c].item.Rank = i + 1
	}
}

// Renumber re-ranks the children of the given parent item ("" for the top
// level). Exposed for callers that mutate ranks directly.
func (t *Tree) Renumber(parentID string) error {
	idx := 0
	if parentID != "" {
		var err error
		idx, err = t.mustIndex(parentID)
		if err != nil {
			return err
		}
	}
	t.renumber(idx)
	t.refreshOrder()
	return nil
}

// Items returns the flat item list in document order, for persisting the
// edited tree back onto the form.
func (t *Tree) Items() []types.FormItem {
	items := make([]types.FormItem, 0, len(t.preorder))
	for _, idx := range t.preorder {
		items = append(items, t.nodes[idx].item)
	}
	return items
}
