package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	types "github.com/aaarash/nemo/pkg/form/types"
)

// Tree is the arena-indexed item hierarchy of one form. Nodes live in a flat
// slice and reference each other by index, so subtree moves and re-ranking
// touch only the affected sibling sets. Index 0 is a synthetic root; items
// with an empty ParentID hang off it.
type Tree struct {
	nodes      []node
	indexByID  map[string]int
	optionSets map[string]*types.OptionSet

	preorder []int          // document order, root excluded
	docPos   map[string]int // item id -> position in preorder
}

type node struct {
	item     types.FormItem
	parent   int
	children []int // ordered by rank
}

// NewTree builds the arena from a form's flat item list. Option sets
// referenced by select questionings are passed in keyed by id; they are read
// only. Returns a StructuralError on duplicate ids or orphaned ancestry.
func NewTree(f *types.Form, optionSets map[string]*types.OptionSet) (*Tree, error) {
	t := &Tree{
		indexByID:  make(map[string]int, len(f.Items)+1),
		optionSets: optionSets,
	}
	t.nodes = make([]node, 1, len(f.Items)+1)
	t.nodes[0] = node{parent: -1}

	for _, item := range f.Items {
		if item.ID == "" {
			return nil, &StructuralError{Msg: "form item without id"}
		}
		if _, dup := t.indexByID[item.ID]; dup {
			return nil, &StructuralError{ItemID: item.ID, Msg: "duplicate item id"}
		}
		t.indexByID[item.ID] = len(t.nodes)
		t.nodes = append(t.nodes, node{item: item, parent: -1})
	}

	for i := 1; i < len(t.nodes); i++ {
		parentID := t.nodes[i].item.ParentID
		parentIdx := 0
		if parentID != "" {
			idx, ok := t.indexByID[parentID]
			if !ok {
				return nil, &StructuralError{ItemID: t.nodes[i].item.ID, Msg: "orphaned ancestry: unknown parent " + parentID}
			}
			if !t.nodes[idx].item.IsGroup() {
				return nil, &StructuralError{ItemID: t.nodes[i].item.ID, Msg: "parent is not a group"}
			}
			parentIdx = idx
		}
		t.nodes[i].parent = parentIdx
		t.nodes[parentIdx].children = append(t.nodes[parentIdx].children, i)
	}

	for i := range t.nodes {
		t.sortChildren(i)
	}
	t.refreshOrder()
	return t, nil
}

func (t *Tree) sortChildren(idx int) {
	children := t.nodes[idx].children
	sort.SliceStable(children, func(a, b int) bool {
		return t.nodes[children[a]].item.Rank < t.nodes[children[b]].item.Rank
	})
}

// refreshOrder recomputes the cached preorder traversal and document
// positions. Called after any structural edit.
func (t *Tree) refreshOrder() {
	t.preorder = t.preorder[:0]
	t.docPos = make(map[string]int, len(t.nodes)-1)
	t.walk(0)
}

func (t *Tree) walk(idx int) {
	if idx != 0 {
		t.docPos[t.nodes[idx].item.ID] = len(t.preorder)
		t.preorder = append(t.preorder, idx)
	}
	for _, c := range t.nodes[idx].children {
		t.walk(c)
	}
}

// Item returns the item with the given id, nil if absent.
func (t *Tree) Item(id string) *types.FormItem {
	idx, ok := t.indexByID[id]
	if !ok {
		return nil
	}
	return &t.nodes[idx].item
}

// Preorder returns all items in document order.
func (t *Tree) Preorder() []*types.FormItem {
	items := make([]*types.FormItem, len(t.preorder))
	for i, idx := range t.preorder {
		items[i] = &t.nodes[idx].item
	}
	return items
}

// SortedChildren returns the ordered children of an item; an empty id means
// the top level of the form.
func (t *Tree) SortedChildren(id string) []*types.FormItem {
	idx := 0
	if id != "" {
		var ok bool
		idx, ok = t.indexByID[id]
		if !ok {
			return nil
		}
	}
	children := make([]*types.FormItem, len(t.nodes[idx].children))
	for i, c := range t.nodes[idx].children {
		children[i] = &t.nodes[c].item
	}
	return children
}

// AncestorGroups returns the item's ancestor groups, outermost first.
func (t *Tree) AncestorGroups(id string) []*types.FormItem {
	idx, ok := t.indexByID[id]
	if !ok {
		return nil
	}
	var ancestors []*types.FormItem
	for p := t.nodes[idx].parent; p > 0; p = t.nodes[p].parent {
		ancestors = append(ancestors, &t.nodes[p].item)
	}
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}
	return ancestors
}

// LaterItems returns all items strictly after the given one in document
// order. This is the domain of valid skip rule destinations.
func (t *Tree) LaterItems(id string) []*types.FormItem {
	pos, ok := t.docPos[id]
	if !ok {
		return nil
	}
	later := make([]*types.FormItem, 0, len(t.preorder)-pos-1)
	for _, idx := range t.preorder[pos+1:] {
		later = append(later, &t.nodes[idx].item)
	}
	return later
}

// Precedes reports whether item a comes strictly before item b in document
// order. Unknown ids never precede anything.
func (t *Tree) Precedes(aID, bID string) bool {
	pa, okA := t.docPos[aID]
	pb, okB := t.docPos[bID]
	return okA && okB && pa < pb
}

// FullDottedRank returns the dotted concatenation of 1-based sibling ranks
// from the top level down to the item, e.g. "3.1.2".
func (t *Tree) FullDottedRank(id string) string {
	idx, ok := t.indexByID[id]
	if !ok {
		return ""
	}
	var ranks []string
	for i := idx; i > 0; i = t.nodes[i].parent {
		ranks = append(ranks, strconv.Itoa(t.nodes[i].item.Rank))
	}
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	return strings.Join(ranks, ".")
}

// OptionSetFor returns the option set of a select questioning, nil for
// other items.
func (t *Tree) OptionSetFor(item *types.FormItem) *types.OptionSet {
	if item == nil || item.Question == nil || item.Question.OptionSetID == "" {
		return nil
	}
	return t.optionSets[item.Question.OptionSetID]
}

// ItemCount returns the number of items on the form (root excluded).
func (t *Tree) ItemCount() int {
	return len(t.preorder)
}

func (t *Tree) mustIndex(id string) (int, error) {
	idx, ok := t.indexByID[id]
	if !ok {
		return 0, fmt.Errorf("unknown form item: %s", id)
	}
	return idx, nil
}
