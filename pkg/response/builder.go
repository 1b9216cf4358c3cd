package response

import (
	"sort"
	"strconv"

	"github.com/aaarash/nemo/pkg/form"
	"github.com/aaarash/nemo/pkg/form/logicengine"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

// Builder constructs the answer node tree for one response from the form's
// item tree and the response's persisted answers. The build is a pure
// function of its inputs: the same answers and the same IncludeBlankAnswers
// setting always yield a structurally identical tree.
//
// IncludeBlankAnswers controls whether visible but unanswered questionings
// get a node with new blank answers (full web rendering) or are left out
// (partial SMS/ODK display).
type Builder struct {
	Tree                *form.Tree
	Existing            []respTypes.Answer
	IncludeBlankAnswers bool

	// per-build evaluation state, reset on every Build call
	byQing     map[string][]respTypes.Answer
	visibility map[string]bool
	values     map[string]interface{}
}

// NewBuilder returns a builder over the given form tree and persisted
// answers (possibly empty for a fresh response).
func NewBuilder(tree *form.Tree, existing []respTypes.Answer, includeBlankAnswers bool) *Builder {
	return &Builder{
		Tree:                tree,
		Existing:            existing,
		IncludeBlankAnswers: includeBlankAnswers,
	}
}

// Build walks the form in document order and produces the top-level answer
// nodes. Visibility is computed once per item and repeat instance and
// memoized for the duration of this call; conditions may only reference
// earlier items, so a single left-to-right pass suffices.
func (b *Builder) Build() ([]*AnswerNode, error) {
	b.visibility = map[string]bool{}
	b.values = map[string]interface{}{}
	b.byQing = map[string][]respTypes.Answer{}
	for _, ans := range b.Existing {
		if b.Tree.Item(ans.QingID) == nil {
			// Answer to an item no longer on the form; dangling cleanup is
			// the caller's concern.
			continue
		}
		b.byQing[ans.QingID] = append(b.byQing[ans.QingID], ans)
	}
	return b.buildItems(b.Tree.SortedChildren(""), true, instScope{})
}

// instScope selects which persisted answers belong to the current position
// in the walk. Outside repeat groups all of a questioning's answers apply;
// inside one, only those of the current repetition.
type instScope struct {
	inRepeat bool
	instNum  int
}

// key namespaces the visibility/value memos: a display-conditioned item
// inside a repeat group is evaluated against each repetition's own answers,
// so its state must not be shared across instances.
func (s instScope) key(itemID string) string {
	if !s.inRepeat {
		return itemID
	}
	return itemID + "#" + strconv.Itoa(s.instNum)
}

func (b *Builder) answersFor(qingID string, scope instScope) []respTypes.Answer {
	answers := b.byQing[qingID]
	if !scope.inRepeat {
		return answers
	}
	var filtered []respTypes.Answer
	for _, a := range answers {
		if a.InstNum == scope.instNum {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func (b *Builder) buildItems(items []*formTypes.FormItem, parentVisible bool, scope instScope) ([]*AnswerNode, error) {
	var nodes []*AnswerNode
	for _, item := range items {
		var (
			node *AnswerNode
			err  error
		)
		if item.IsQuestioning() {
			node, err = b.buildQuestioning(item, parentVisible, scope)
		} else if item.Repeatable {
			node, err = b.buildRepeatGroup(item, parentVisible, scope)
		} else {
			node, err = b.buildGroup(item, parentVisible, scope)
		}
		if err != nil {
			return nil, err
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func (b *Builder) buildQuestioning(item *formTypes.FormItem, parentVisible bool, scope instScope) (*AnswerNode, error) {
	visible, err := b.itemVisible(item, parentVisible, scope)
	if err != nil {
		return nil, err
	}

	existing := b.answersFor(item.ID, scope)
	if len(existing) == 0 {
		// Absent and invisible means "not applicable": no node at all.
		// Absent but visible gets a blank node only on request.
		if !visible || !b.IncludeBlankAnswers {
			b.values[scope.key(item.ID)] = nil
			return nil, nil
		}
	}

	set := b.buildAnswerSet(item, existing, scope)
	b.values[scope.key(item.ID)] = set.lookupValue()

	return &AnswerNode{Item: item, Visible: visible, Set: set}, nil
}

// buildAnswerSet wraps existing answers (never copies them) and fills the
// remaining levels with new blank answers. The set length always equals the
// option set's level count, regardless of how many levels were answered.
func (b *Builder) buildAnswerSet(item *formTypes.FormItem, existing []respTypes.Answer, scope instScope) *AnswerSet {
	optionSet := b.Tree.OptionSetFor(item)
	levels := 1
	if optionSet != nil && item.QType() == formTypes.QTYPE_SELECT_ONE {
		levels = optionSet.LevelCount()
	}

	byRank := make(map[int]respTypes.Answer, len(existing))
	for _, a := range existing {
		rank := a.Rank
		if rank < 1 {
			rank = 1
		}
		byRank[rank] = a
	}

	set := &AnswerSet{QingID: item.ID, Answers: make([]*Answer, 0, levels)}
	for rank := 1; rank <= levels; rank++ {
		record, ok := byRank[rank]
		if !ok {
			record = respTypes.Answer{
				QingID:    item.ID,
				InstNum:   scope.instNum,
				Rank:      rank,
				NewRecord: true,
			}
		}
		set.Answers = append(set.Answers, &Answer{Answer: record, Qing: item, OptionSet: optionSet})
	}
	return set
}

func (b *Builder) buildGroup(item *formTypes.FormItem, parentVisible bool, scope instScope) (*AnswerNode, error) {
	visible, err := b.itemVisible(item, parentVisible, scope)
	if err != nil {
		return nil, err
	}
	children, err := b.buildItems(b.Tree.SortedChildren(item.ID), visible, scope)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		// Childless groups render nothing.
		return nil, nil
	}
	return &AnswerNode{Item: item, Visible: visible, Children: children}, nil
}

func (b *Builder) buildRepeatGroup(item *formTypes.FormItem, parentVisible bool, scope instScope) (*AnswerNode, error) {
	visible, err := b.itemVisible(item, parentVisible, scope)
	if err != nil {
		return nil, err
	}

	instNums := b.existingInstNums(item)
	if len(instNums) == 0 {
		if !visible || !b.IncludeBlankAnswers {
			return nil, nil
		}
		// Give the UI a first repetition to fill in.
		instNums = []int{0}
	}

	node := &AnswerNode{Item: item, Visible: visible}
	for _, instNum := range instNums {
		childScope := instScope{inRepeat: true, instNum: instNum}
		children, err := b.buildItems(b.Tree.SortedChildren(item.ID), visible, childScope)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			continue
		}
		node.Instances = append(node.Instances, &AnswerInstance{InstNum: instNum, Nodes: children})
	}
	if len(node.Instances) == 0 {
		return nil, nil
	}
	return node, nil
}

// existingInstNums collects the distinct repetition numbers present among
// the persisted answers of the group's descendant questionings, in
// persisted order.
func (b *Builder) existingInstNums(group *formTypes.FormItem) []int {
	seen := map[int]bool{}
	var instNums []int
	var collect func(items []*formTypes.FormItem)
	collect = func(items []*formTypes.FormItem) {
		for _, item := range items {
			if item.IsQuestioning() {
				for _, a := range b.byQing[item.ID] {
					if !seen[a.InstNum] {
						seen[a.InstNum] = true
						instNums = append(instNums, a.InstNum)
					}
				}
				continue
			}
			collect(b.Tree.SortedChildren(item.ID))
		}
	}
	collect(b.Tree.SortedChildren(group.ID))
	sort.Ints(instNums)
	return instNums
}

// itemVisible computes and memoizes the display state of one item within the
// current repeat scope: visible ancestors, not flagged hidden, and a passing
// display condition evaluated against the scope's own answers.
func (b *Builder) itemVisible(item *formTypes.FormItem, parentVisible bool, scope instScope) (bool, error) {
	if v, ok := b.visibility[scope.key(item.ID)]; ok {
		return v, nil
	}
	visible := parentVisible && !item.Hidden
	if visible && !item.DisplayIf.Empty() {
		met, err := logicengine.Evaluate(item.DisplayIf, b.lookup(scope))
		if err != nil {
			return false, err
		}
		visible = met
	}
	b.visibility[scope.key(item.ID)] = visible
	return visible, nil
}

// lookup exposes the running visibility/value context to the condition
// evaluator. Items of the current repeat instance shadow same-named entries
// from outside the repeat.
func (b *Builder) lookup(scope instScope) logicengine.AnswerLookup {
	return builderLookup{b, scope}
}

type builderLookup struct {
	b     *Builder
	scope instScope
}

func (l builderLookup) Value(qingID string) interface{} {
	if l.scope.inRepeat {
		if v, ok := l.b.values[l.scope.key(qingID)]; ok {
			return v
		}
	}
	return l.b.values[qingID]
}

func (l builderLookup) Visible(qingID string) bool {
	if l.scope.inRepeat {
		if v, ok := l.b.visibility[l.scope.key(qingID)]; ok {
			return v
		}
	}
	return l.b.visibility[qingID]
}
