package response

import (
	"strings"
	"testing"

	"github.com/aaarash/nemo/pkg/form"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

func petOptionSet() *formTypes.OptionSet {
	return &formTypes.OptionSet{
		ID:        "os-pets",
		MissionID: "testMission",
		Name:      "Pets",
		Root: formTypes.OptionNode{
			ID: "pn-root",
			Children: []formTypes.OptionNode{
				{ID: "pn-cat", Rank: 1, Option: &formTypes.Option{ID: "o-cat", Canonical: "Cat"}},
				{ID: "pn-dog", Rank: 2, Option: &formTypes.Option{ID: "o-dog", Canonical: "Dog"}},
			},
		},
	}
}

func taxonomyOptionSet() *formTypes.OptionSet {
	return &formTypes.OptionSet{
		ID:        "os-tax",
		MissionID: "testMission",
		Name:      "Taxonomy",
		LevelNames: []formTypes.Translations{
			{"en": "Kingdom"},
			{"en": "Species"},
		},
		Root: formTypes.OptionNode{
			ID: "tn-root",
			Children: []formTypes.OptionNode{
				{ID: "tn-animal", Rank: 1, Option: &formTypes.Option{ID: "o-animal", Canonical: "Animal"}, Children: []formTypes.OptionNode{
					{ID: "tn-cat", Rank: 1, Option: &formTypes.Option{ID: "o-tcat", Canonical: "Cat"}},
					{ID: "tn-dog", Rank: 2, Option: &formTypes.Option{ID: "o-tdog", Canonical: "Dog"}},
				}},
				{ID: "tn-plant", Rank: 2, Option: &formTypes.Option{ID: "o-plant", Canonical: "Plant"}, Children: []formTypes.OptionNode{
					{ID: "tn-tulip", Rank: 1, Option: &formTypes.Option{ID: "o-tulip", Canonical: "Tulip"}},
				}},
			},
		},
	}
}

func builderQing(id string, parentID string, rank int, qtype string, optionSetID string) formTypes.FormItem {
	return formTypes.FormItem{
		ID:       id,
		Type:     formTypes.ITEM_TYPE_QUESTIONING,
		ParentID: parentID,
		Rank:     rank,
		Question: &formTypes.Question{ID: "question-" + id, Code: strings.ToUpper(id), QType: qtype, OptionSetID: optionSetID},
	}
}

func mustBuildTree(t *testing.T, f *formTypes.Form) *form.Tree {
	t.Helper()
	tree, err := form.NewTree(f, map[string]*formTypes.OptionSet{
		"os-pets": petOptionSet(),
		"os-tax":  taxonomyOptionSet(),
	})
	if err != nil {
		t.Fatalf("unexpected error building form tree: %v", err)
	}
	return tree
}

func nodeIDs(nodes []*AnswerNode) string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.Item.ID)
	}
	return strings.Join(ids, ",")
}

func findNode(nodes []*AnswerNode, itemID string) *AnswerNode {
	for _, n := range nodes {
		if n.Item.ID == itemID {
			return n
		}
	}
	return nil
}

func TestBuildFullResponse(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f1",
		MissionID: "testMission",
		Name:      "Pet Survey",
		Items: []formTypes.FormItem{
			builderQing("q1", "", 1, formTypes.QTYPE_SELECT_ONE, "os-pets"),
			func() formTypes.FormItem {
				it := builderQing("q2", "", 2, formTypes.QTYPE_INTEGER, "")
				it.DisplayIf = &formTypes.ConditionSet{Conditions: []formTypes.Condition{
					{ID: "c1", LeftQingID: "q1", Op: formTypes.OP_EQ, OptionNodeID: "pn-cat"},
				}}
				return it
			}(),
			builderQing("q3", "", 3, formTypes.QTYPE_SELECT_ONE, "os-tax"),
			{ID: "g1", Type: formTypes.ITEM_TYPE_GROUP, Rank: 4, Repeatable: true},
			builderQing("q4", "g1", 1, formTypes.QTYPE_TEXT, ""),
			builderQing("q8", "g1", 2, formTypes.QTYPE_SELECT_ONE, "os-tax"),
			builderQing("q5", "g1", 3, formTypes.QTYPE_INTEGER, ""),
			builderQing("q6", "", 5, formTypes.QTYPE_SELECT_MULTIPLE, "os-pets"),
			func() formTypes.FormItem {
				it := builderQing("q7", "", 6, formTypes.QTYPE_DECIMAL, "")
				it.Hidden = true
				return it
			}(),
		},
	}
	tree := mustBuildTree(t, f)

	// Instance 2 answers come first to check repetition ordering.
	answers := []respTypes.Answer{
		{ID: "a1", QingID: "q1", Rank: 1, OptionNodeID: "pn-cat"},
		{ID: "a2", QingID: "q2", Rank: 1, Value: "12"},
		{ID: "a3", QingID: "q3", Rank: 1, OptionNodeID: "tn-plant"},
		{ID: "a4", QingID: "q3", Rank: 2, OptionNodeID: "tn-tulip"},
		{ID: "a5", QingID: "q4", InstNum: 2, Rank: 1, Value: "blah"},
		{ID: "a6", QingID: "q5", InstNum: 2, Rank: 1, Value: "38"},
		{ID: "a7", QingID: "q4", InstNum: 1, Rank: 1, Value: "stuff"},
		{ID: "a8", QingID: "q5", InstNum: 1, Rank: 1, Value: "88"},
		{ID: "a11", QingID: "q8", InstNum: 1, Rank: 1, OptionNodeID: "tn-animal"},
		{ID: "a12", QingID: "q8", InstNum: 1, Rank: 2, OptionNodeID: "tn-dog"},
		{ID: "a13", QingID: "q8", InstNum: 2, Rank: 1, OptionNodeID: "tn-animal"},
		{ID: "a14", QingID: "q8", InstNum: 2, Rank: 2, OptionNodeID: "tn-cat"},
		{ID: "a9", QingID: "q6", Rank: 1, OptionNodeIDs: []string{"pn-cat", "pn-dog"}},
		{ID: "a10", QingID: "q7", Rank: 1, Value: "3.2"},
	}

	nodes, err := NewBuilder(tree, answers, false).Build()
	if err != nil {
		t.Fatalf("unexpected error building answer tree: %v", err)
	}

	t.Run("top level shape in document order", func(t *testing.T) {
		if ids := nodeIDs(nodes); ids != "q1,q2,q3,g1,q6,q7" {
			t.Errorf("unexpected top level nodes: %s", ids)
		}
	})

	t.Run("select_one casted to canonical name", func(t *testing.T) {
		if v := findNode(nodes, "q1").FirstCastedValue(); v != "Cat" {
			t.Errorf("unexpected casted value: %v", v)
		}
	})

	t.Run("integer casted to int", func(t *testing.T) {
		if v := findNode(nodes, "q2").FirstCastedValue(); v != 12 {
			t.Errorf("unexpected casted value: %v", v)
		}
	})

	t.Run("multilevel set has one answer per level", func(t *testing.T) {
		set := findNode(nodes, "q3").Set
		if len(set.Answers) != 2 {
			t.Fatalf("unexpected answer count: %d", len(set.Answers))
		}
		if v := set.Answers[0].CastedValue(); v != "Plant" {
			t.Errorf("unexpected level 1 value: %v", v)
		}
		if v := set.Answers[1].CastedValue(); v != "Tulip" {
			t.Errorf("unexpected level 2 value: %v", v)
		}
	})

	t.Run("repeat instances sorted by instance number", func(t *testing.T) {
		g := findNode(nodes, "g1")
		if len(g.Instances) != 2 {
			t.Fatalf("unexpected instance count: %d", len(g.Instances))
		}
		if g.Instances[0].InstNum != 1 || g.Instances[1].InstNum != 2 {
			t.Errorf("unexpected instance order: %d, %d", g.Instances[0].InstNum, g.Instances[1].InstNum)
		}
		if v := findNode(g.Instances[0].Nodes, "q4").FirstCastedValue(); v != "stuff" {
			t.Errorf("unexpected instance 1 text: %v", v)
		}
		if v := findNode(g.Instances[1].Nodes, "q5").FirstCastedValue(); v != 38 {
			t.Errorf("unexpected instance 2 integer: %v", v)
		}
	})

	t.Run("multilevel select inside repeat keeps per-instance sets", func(t *testing.T) {
		g := findNode(nodes, "g1")
		if len(g.Instances) != 2 {
			t.Fatalf("unexpected instance count: %d", len(g.Instances))
		}
		first := findNode(g.Instances[0].Nodes, "q8").Set
		if v := first.Answers[0].CastedValue(); v != "Animal" {
			t.Errorf("unexpected instance 1 level 1 value: %v", v)
		}
		if v := first.Answers[1].CastedValue(); v != "Dog" {
			t.Errorf("unexpected instance 1 level 2 value: %v", v)
		}
		second := findNode(g.Instances[1].Nodes, "q8").Set
		if v := second.Answers[1].CastedValue(); v != "Cat" {
			t.Errorf("unexpected instance 2 level 2 value: %v", v)
		}
	})

	t.Run("select_multiple joined by semicolon", func(t *testing.T) {
		if v := findNode(nodes, "q6").FirstCastedValue(); v != "Cat;Dog" {
			t.Errorf("unexpected casted value: %v", v)
		}
	})

	t.Run("hidden question keeps its answer but is invisible", func(t *testing.T) {
		n := findNode(nodes, "q7")
		if n == nil {
			t.Fatal("expected node for hidden answered question")
		}
		if n.Visible {
			t.Error("expected hidden question node to be invisible")
		}
		if v := n.FirstCastedValue(); v != 3.2 {
			t.Errorf("unexpected casted value: %v", v)
		}
	})
}

func TestBuildBlankPolicy(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f2",
		MissionID: "testMission",
		Name:      "Blank Policy",
		Items: []formTypes.FormItem{
			builderQing("q1", "", 1, formTypes.QTYPE_SELECT_ONE, "os-pets"),
			func() formTypes.FormItem {
				it := builderQing("q2", "", 2, formTypes.QTYPE_INTEGER, "")
				it.DisplayIf = &formTypes.ConditionSet{Conditions: []formTypes.Condition{
					{ID: "c1", LeftQingID: "q1", Op: formTypes.OP_EQ, OptionNodeID: "pn-dog"},
				}}
				return it
			}(),
			builderQing("q3", "", 3, formTypes.QTYPE_TEXT, ""),
		},
	}
	tree := mustBuildTree(t, f)
	catAnswer := respTypes.Answer{ID: "a1", QingID: "q1", Rank: 1, OptionNodeID: "pn-cat"}

	t.Run("visible unanswered included when blanks requested", func(t *testing.T) {
		nodes, err := NewBuilder(tree, []respTypes.Answer{catAnswer}, true).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ids := nodeIDs(nodes); ids != "q1,q3" {
			t.Errorf("unexpected nodes: %s", ids)
		}
		blank := findNode(nodes, "q3")
		if !blank.Set.Blank() {
			t.Error("expected blank set for unanswered question")
		}
		if !blank.Set.Answers[0].NewRecord {
			t.Error("expected filled-in answer to be marked as new")
		}
	})

	t.Run("visible unanswered skipped without blanks", func(t *testing.T) {
		nodes, err := NewBuilder(tree, []respTypes.Answer{catAnswer}, false).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ids := nodeIDs(nodes); ids != "q1" {
			t.Errorf("unexpected nodes: %s", ids)
		}
	})

	t.Run("invisible unanswered always omitted", func(t *testing.T) {
		nodes, err := NewBuilder(tree, []respTypes.Answer{catAnswer}, true).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if findNode(nodes, "q2") != nil {
			t.Error("expected no node for invisible unanswered question")
		}
	})

	t.Run("invisible answered kept invisible with its value", func(t *testing.T) {
		answers := []respTypes.Answer{
			catAnswer,
			{ID: "a2", QingID: "q2", Rank: 1, Value: "5"},
		}
		nodes, err := NewBuilder(tree, answers, false).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n := findNode(nodes, "q2")
		if n == nil {
			t.Fatal("expected node for invisible answered question")
		}
		if n.Visible {
			t.Error("expected node to be invisible")
		}
		if v := n.FirstCastedValue(); v != 5 {
			t.Errorf("unexpected casted value: %v", v)
		}
	})

	t.Run("answers to removed items ignored", func(t *testing.T) {
		answers := []respTypes.Answer{
			catAnswer,
			{ID: "a3", QingID: "gone", Rank: 1, Value: "orphan"},
		}
		nodes, err := NewBuilder(tree, answers, false).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ids := nodeIDs(nodes); ids != "q1" {
			t.Errorf("unexpected nodes: %s", ids)
		}
	})
}

func TestBuildMultilevelPadding(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f3",
		MissionID: "testMission",
		Name:      "Padding",
		Items: []formTypes.FormItem{
			builderQing("q1", "", 1, formTypes.QTYPE_SELECT_ONE, "os-tax"),
		},
	}
	tree := mustBuildTree(t, f)
	answers := []respTypes.Answer{
		{ID: "a1", QingID: "q1", Rank: 1, OptionNodeID: "tn-animal"},
	}

	nodes, err := NewBuilder(tree, answers, false).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := findNode(nodes, "q1").Set
	if len(set.Answers) != 2 {
		t.Fatalf("unexpected answer count: %d", len(set.Answers))
	}
	if v := set.Answers[0].CastedValue(); v != "Animal" {
		t.Errorf("unexpected level 1 value: %v", v)
	}
	second := set.Answers[1]
	if !second.Blank() || !second.NewRecord || second.Rank != 2 {
		t.Errorf("expected blank new level 2 answer, got %+v", second.Answer)
	}
}

func TestBuildRepeatGroupBlanks(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f4",
		MissionID: "testMission",
		Name:      "Repeats",
		Items: []formTypes.FormItem{
			{ID: "g1", Type: formTypes.ITEM_TYPE_GROUP, Rank: 1, Repeatable: true},
			builderQing("q1", "g1", 1, formTypes.QTYPE_TEXT, ""),
		},
	}
	tree := mustBuildTree(t, f)

	t.Run("no repetitions yields one blank instance when blanks requested", func(t *testing.T) {
		nodes, err := NewBuilder(tree, nil, true).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		g := findNode(nodes, "g1")
		if g == nil {
			t.Fatal("expected repeat group node")
		}
		if len(g.Instances) != 1 || g.Instances[0].InstNum != 0 {
			t.Fatalf("unexpected instances: %+v", g.Instances)
		}
		if !findNode(g.Instances[0].Nodes, "q1").Set.Blank() {
			t.Error("expected blank answer in seeded instance")
		}
	})

	t.Run("no repetitions omitted without blanks", func(t *testing.T) {
		nodes, err := NewBuilder(tree, nil, false).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(nodes) != 0 {
			t.Errorf("unexpected nodes: %s", nodeIDs(nodes))
		}
	})
}

func TestBuildRepeatInstanceVisibility(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f7",
		MissionID: "testMission",
		Name:      "Conditional Repeats",
		Items: []formTypes.FormItem{
			{ID: "g1", Type: formTypes.ITEM_TYPE_GROUP, Rank: 1, Repeatable: true},
			builderQing("q1", "g1", 1, formTypes.QTYPE_TEXT, ""),
			func() formTypes.FormItem {
				it := builderQing("q2", "g1", 2, formTypes.QTYPE_INTEGER, "")
				it.DisplayIf = &formTypes.ConditionSet{Conditions: []formTypes.Condition{
					{ID: "c1", LeftQingID: "q1", Op: formTypes.OP_EQ, Value: "yes"},
				}}
				return it
			}(),
		},
	}
	tree := mustBuildTree(t, f)

	t.Run("display condition evaluated per instance", func(t *testing.T) {
		answers := []respTypes.Answer{
			{ID: "a1", QingID: "q1", InstNum: 1, Rank: 1, Value: "yes"},
			{ID: "a2", QingID: "q1", InstNum: 2, Rank: 1, Value: "no"},
		}
		nodes, err := NewBuilder(tree, answers, true).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		g := findNode(nodes, "g1")
		if g == nil || len(g.Instances) != 2 {
			t.Fatalf("unexpected group node: %+v", g)
		}
		met := findNode(g.Instances[0].Nodes, "q2")
		if met == nil || !met.Visible {
			t.Errorf("expected visible q2 node in instance where condition holds, got %+v", met)
		}
		if n := findNode(g.Instances[1].Nodes, "q2"); n != nil {
			t.Errorf("expected no q2 node in instance where condition fails, got %+v", n)
		}
	})

	t.Run("answered question in failing instance kept invisible", func(t *testing.T) {
		answers := []respTypes.Answer{
			{ID: "a1", QingID: "q1", InstNum: 1, Rank: 1, Value: "no"},
			{ID: "a2", QingID: "q2", InstNum: 1, Rank: 1, Value: "7"},
			{ID: "a3", QingID: "q1", InstNum: 2, Rank: 1, Value: "yes"},
		}
		nodes, err := NewBuilder(tree, answers, true).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		g := findNode(nodes, "g1")
		if g == nil || len(g.Instances) != 2 {
			t.Fatalf("unexpected group node: %+v", g)
		}
		kept := findNode(g.Instances[0].Nodes, "q2")
		if kept == nil {
			t.Fatal("expected node for answered question in failing instance")
		}
		if kept.Visible {
			t.Error("expected answered question in failing instance to be invisible")
		}
		if v := kept.FirstCastedValue(); v != 7 {
			t.Errorf("unexpected casted value: %v", v)
		}
		blank := findNode(g.Instances[1].Nodes, "q2")
		if blank == nil || !blank.Visible || !blank.Set.Blank() {
			t.Errorf("expected visible blank q2 node in passing instance, got %+v", blank)
		}
	})
}

func TestBuildVisibilityCascade(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f5",
		MissionID: "testMission",
		Name:      "Cascade",
		Items: []formTypes.FormItem{
			builderQing("q1", "", 1, formTypes.QTYPE_SELECT_ONE, "os-pets"),
			func() formTypes.FormItem {
				return formTypes.FormItem{
					ID: "g1", Type: formTypes.ITEM_TYPE_GROUP, Rank: 2,
					DisplayIf: &formTypes.ConditionSet{Conditions: []formTypes.Condition{
						{ID: "c1", LeftQingID: "q1", Op: formTypes.OP_EQ, OptionNodeID: "pn-dog"},
					}},
				}
			}(),
			builderQing("q2", "g1", 1, formTypes.QTYPE_TEXT, ""),
		},
	}
	tree := mustBuildTree(t, f)
	catAnswer := respTypes.Answer{ID: "a1", QingID: "q1", Rank: 1, OptionNodeID: "pn-cat"}

	t.Run("invisible group with answered child stays, both invisible", func(t *testing.T) {
		answers := []respTypes.Answer{
			catAnswer,
			{ID: "a2", QingID: "q2", Rank: 1, Value: "kept"},
		}
		nodes, err := NewBuilder(tree, answers, false).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		g := findNode(nodes, "g1")
		if g == nil {
			t.Fatal("expected group node")
		}
		if g.Visible {
			t.Error("expected group to be invisible")
		}
		child := findNode(g.Children, "q2")
		if child == nil || child.Visible {
			t.Errorf("expected invisible child node, got %+v", child)
		}
	})

	t.Run("invisible group without answers omitted entirely", func(t *testing.T) {
		nodes, err := NewBuilder(tree, []respTypes.Answer{catAnswer}, true).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if findNode(nodes, "g1") != nil {
			t.Error("expected childless invisible group to be omitted")
		}
	})
}

func TestBuildIdempotent(t *testing.T) {
	f := &formTypes.Form{
		ID:        "f6",
		MissionID: "testMission",
		Name:      "Stable",
		Items: []formTypes.FormItem{
			builderQing("q1", "", 1, formTypes.QTYPE_SELECT_ONE, "os-pets"),
			builderQing("q2", "", 2, formTypes.QTYPE_INTEGER, ""),
		},
	}
	tree := mustBuildTree(t, f)
	answers := []respTypes.Answer{
		{ID: "a1", QingID: "q1", Rank: 1, OptionNodeID: "pn-dog"},
	}

	b := NewBuilder(tree, answers, true)
	first, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodeIDs(first) != nodeIDs(second) {
		t.Errorf("rebuild changed shape: %s vs %s", nodeIDs(first), nodeIDs(second))
	}
	if first[0].FirstCastedValue() != second[0].FirstCastedValue() {
		t.Error("rebuild changed values")
	}
}
