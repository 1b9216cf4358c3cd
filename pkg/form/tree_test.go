package form

import (
	"strings"
	"testing"

	types "github.com/aaarash/nemo/pkg/form/types"
)

func qing(id, parentID string, rank int, code, qtype string) types.FormItem {
	return types.FormItem{
		ID:       id,
		Type:     types.ITEM_TYPE_QUESTIONING,
		ParentID: parentID,
		Rank:     rank,
		Question: &types.Question{ID: "question-" + id, Code: code, QType: qtype},
	}
}

func group(id, parentID string, rank int) types.FormItem {
	return types.FormItem{
		ID:       id,
		Type:     types.ITEM_TYPE_GROUP,
		ParentID: parentID,
		Rank:     rank,
	}
}

// testForm builds:
//
//	1 q1
//	2 g1
//	  2.1 q2
//	  2.2 g2
//	    2.2.1 q3
//	3 q4
func testForm() *types.Form {
	return &types.Form{
		ID:   "form-1",
		Name: "Household Survey",
		Items: []types.FormItem{
			qing("q1", "", 1, "Name", types.QTYPE_TEXT),
			group("g1", "", 2),
			qing("q2", "g1", 1, "Age", types.QTYPE_INTEGER),
			group("g2", "g1", 2),
			qing("q3", "g2", 1, "Weight", types.QTYPE_DECIMAL),
			qing("q4", "", 3, "Notes", types.QTYPE_LONG_TEXT),
		},
	}
}

func mustTree(t *testing.T, f *types.Form) *Tree {
	t.Helper()
	tree, err := NewTree(f, nil)
	if err != nil {
		t.Fatalf("unexpected error building tree: %v", err)
	}
	return tree
}

func preorderIDs(tree *Tree) []string {
	items := tree.Preorder()
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestNewTree(t *testing.T) {
	t.Run("builds document order", func(t *testing.T) {
		tree := mustTree(t, testForm())
		got := strings.Join(preorderIDs(tree), ",")
		if got != "q1,g1,q2,g2,q3,q4" {
			t.Errorf("unexpected preorder: %s", got)
		}
	})

	t.Run("orders siblings by rank not input order", func(t *testing.T) {
		f := &types.Form{ID: "form-1", Items: []types.FormItem{
			qing("q2", "", 2, "B", types.QTYPE_TEXT),
			qing("q1", "", 1, "A", types.QTYPE_TEXT),
		}}
		tree := mustTree(t, f)
		got := strings.Join(preorderIDs(tree), ",")
		if got != "q1,q2" {
			t.Errorf("unexpected preorder: %s", got)
		}
	})

	t.Run("duplicate id is a structural error", func(t *testing.T) {
		f := &types.Form{ID: "form-1", Items: []types.FormItem{
			qing("q1", "", 1, "A", types.QTYPE_TEXT),
			qing("q1", "", 2, "B", types.QTYPE_TEXT),
		}}
		if _, err := NewTree(f, nil); err == nil {
			t.Error("expected error for duplicate item id")
		}
	})

	t.Run("unknown parent is a structural error", func(t *testing.T) {
		f := &types.Form{ID: "form-1", Items: []types.FormItem{
			qing("q1", "missing", 1, "A", types.QTYPE_TEXT),
		}}
		if _, err := NewTree(f, nil); err == nil {
			t.Error("expected error for orphaned ancestry")
		}
	})

	t.Run("questioning cannot be a parent", func(t *testing.T) {
		f := &types.Form{ID: "form-1", Items: []types.FormItem{
			qing("q1", "", 1, "A", types.QTYPE_TEXT),
			qing("q2", "q1", 1, "B", types.QTYPE_TEXT),
		}}
		if _, err := NewTree(f, nil); err == nil {
			t.Error("expected error for non group parent")
		}
	})
}

func TestFullDottedRank(t *testing.T) {
	tree := mustTree(t, testForm())

	cases := map[string]string{
		"q1": "1",
		"g1": "2",
		"q2": "2.1",
		"g2": "2.2",
		"q3": "2.2.1",
		"q4": "3",
	}
	for id, want := range cases {
		if got := tree.FullDottedRank(id); got != want {
			t.Errorf("unexpected dotted rank for %s: %s", id, got)
		}
	}
}

func TestTreeNavigation(t *testing.T) {
	tree := mustTree(t, testForm())

	t.Run("sorted children of top level", func(t *testing.T) {
		children := tree.SortedChildren("")
		if len(children) != 3 {
			t.Fatalf("unexpected child count: %d", len(children))
		}
		if children[0].ID != "q1" || children[1].ID != "g1" || children[2].ID != "q4" {
			t.Errorf("unexpected top level order: %s,%s,%s", children[0].ID, children[1].ID, children[2].ID)
		}
	})

	t.Run("ancestor groups outermost first", func(t *testing.T) {
		ancestors := tree.AncestorGroups("q3")
		if len(ancestors) != 2 {
			t.Fatalf("unexpected ancestor count: %d", len(ancestors))
		}
		if ancestors[0].ID != "g1" || ancestors[1].ID != "g2" {
			t.Errorf("unexpected ancestor order: %s,%s", ancestors[0].ID, ancestors[1].ID)
		}
	})

	t.Run("later items in document order", func(t *testing.T) {
		later := tree.LaterItems("q2")
		ids := make([]string, len(later))
		for i, item := range later {
			ids[i] = item.ID
		}
		if strings.Join(ids, ",") != "g2,q3,q4" {
			t.Errorf("unexpected later items: %s", strings.Join(ids, ","))
		}
	})

	t.Run("precedes follows document order across levels", func(t *testing.T) {
		if !tree.Precedes("q2", "q3") {
			t.Error("q2 should precede q3")
		}
		if tree.Precedes("q4", "q3") {
			t.Error("q4 should not precede q3")
		}
		if tree.Precedes("q1", "q1") {
			t.Error("an item should not precede itself")
		}
	})
}

func TestTreeEdits(t *testing.T) {
	t.Run("insert renumbers the sibling set", func(t *testing.T) {
		tree := mustTree(t, testForm())
		err := tree.InsertItem(qing("q5", "", 2, "New", types.QTYPE_TEXT))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		children := tree.SortedChildren("")
		ids := make([]string, len(children))
		for i, c := range children {
			ids[i] = c.ID
			if c.Rank != i+1 {
				t.Errorf("unexpected rank for %s: %d", c.ID, c.Rank)
			}
		}
		if strings.Join(ids, ",") != "q1,q5,g1,q4" {
			t.Errorf("unexpected order after insert: %s", strings.Join(ids, ","))
		}
	})

	t.Run("move reparents the whole subtree", func(t *testing.T) {
		tree := mustTree(t, testForm())
		if err := tree.MoveItem("g2", "", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := strings.Join(preorderIDs(tree), ",")
		if got != "g2,q3,q1,g1,q2,q4" {
			t.Errorf("unexpected preorder after move: %s", got)
		}
		if tree.FullDottedRank("q3") != "1.1" {
			t.Errorf("unexpected dotted rank after move: %s", tree.FullDottedRank("q3"))
		}
		if tree.Item("g2").ParentID != "" {
			t.Errorf("unexpected parent id after move: %s", tree.Item("g2").ParentID)
		}
	})

	t.Run("move into own subtree is rejected", func(t *testing.T) {
		tree := mustTree(t, testForm())
		if err := tree.MoveItem("g1", "g2", 1); err == nil {
			t.Error("expected error moving group into its own subtree")
		}
	})

	t.Run("remove drops the subtree and renumbers", func(t *testing.T) {
		tree := mustTree(t, testForm())
		if err := tree.RemoveItem("g1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := strings.Join(preorderIDs(tree), ",")
		if got != "q1,q4" {
			t.Errorf("unexpected preorder after remove: %s", got)
		}
		if tree.Item("q3") != nil {
			t.Error("descendant of removed group should be gone")
		}
		if tree.Item("q4").Rank != 2 {
			t.Errorf("unexpected rank after remove: %d", tree.Item("q4").Rank)
		}
	})

	t.Run("items returns the persistable flat list", func(t *testing.T) {
		tree := mustTree(t, testForm())
		if err := tree.MoveItem("q4", "g1", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		items := tree.Items()
		rebuilt, err := NewTree(&types.Form{ID: "form-1", Items: items}, nil)
		if err != nil {
			t.Fatalf("unexpected error rebuilding tree: %v", err)
		}
		if strings.Join(preorderIDs(rebuilt), ",") != strings.Join(preorderIDs(tree), ",") {
			t.Error("rebuilt tree should preserve document order")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid form has no errors", func(t *testing.T) {
		tree := mustTree(t, testForm())
		if errs := tree.Validate(); len(errs) != 0 {
			t.Errorf("unexpected validation errors: %v", errs)
		}
	})

	t.Run("condition must reference an earlier questioning", func(t *testing.T) {
		f := testForm()
		// q1's display condition points forward to q4
		f.Items[0].DisplayIf = &types.ConditionSet{Conditions: []types.Condition{
			{ID: "c1", LeftQingID: "q4", Op: types.OP_EQ, Value: "x"},
		}}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})

	t.Run("condition on a group is rejected", func(t *testing.T) {
		f := testForm()
		f.Items[5].DisplayIf = &types.ConditionSet{Conditions: []types.Condition{
			{ID: "c1", LeftQingID: "g1", Op: types.OP_EQ, Value: "x"},
		}}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})

	t.Run("constraint may reference its own item", func(t *testing.T) {
		f := testForm()
		// q2 accepts its own answer only up to 100
		f.Items[2].Constraints = []types.Constraint{
			{ID: "con1", Conditions: []types.Condition{
				{ID: "c1", LeftQingID: "q2", Op: types.OP_LEQ, Value: "100"},
			}},
		}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 0 {
			t.Errorf("unexpected validation errors: %v", errs)
		}
	})

	t.Run("constraint must not reference a later item", func(t *testing.T) {
		f := testForm()
		f.Items[0].Constraints = []types.Constraint{
			{ID: "con1", Conditions: []types.Condition{
				{ID: "c1", LeftQingID: "q4", Op: types.OP_EQ, Value: "x"},
			}},
		}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})

	t.Run("skip destination must follow the rule's item", func(t *testing.T) {
		f := testForm()
		f.Items[5].SkipRules = []types.SkipRule{
			{ID: "s1", Destination: types.SKIP_DEST_ITEM, DestItemID: "q1", SkipIf: types.SKIP_IF_ALWAYS},
		}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})

	t.Run("skip destination must exist", func(t *testing.T) {
		f := testForm()
		f.Items[0].SkipRules = []types.SkipRule{
			{ID: "s1", Destination: types.SKIP_DEST_ITEM, DestItemID: "missing", SkipIf: types.SKIP_IF_ALWAYS},
		}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})

	t.Run("repeat group inside fragment is rejected", func(t *testing.T) {
		frag := group("g1", "", 1)
		frag.Fragment = true
		rep := group("g2", "g1", 1)
		rep.Repeatable = true
		f := &types.Form{ID: "form-1", Items: []types.FormItem{
			frag,
			rep,
			qing("q1", "g2", 1, "A", types.QTYPE_TEXT),
		}}
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})

	t.Run("select questioning needs a known option set", func(t *testing.T) {
		f := testForm()
		sel := qing("q5", "", 4, "Color", types.QTYPE_SELECT_ONE)
		sel.Question.OptionSetID = "missing-set"
		f.Items = append(f.Items, sel)
		tree := mustTree(t, f)
		if errs := tree.Validate(); len(errs) != 1 {
			t.Errorf("unexpected error count: %d", len(errs))
		}
	})
}
