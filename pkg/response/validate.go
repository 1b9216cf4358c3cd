package response

import (
	"github.com/aaarash/nemo/pkg/form"
	"github.com/aaarash/nemo/pkg/form/logicengine"
)

// ValidationFailure reports one constraint or required-field violation,
// keyed to the exact answer node (questioning + repetition) it occurred on.
// Failures are collected across the whole tree so the submitter sees every
// problem in one pass.
type ValidationFailure struct {
	QingID         string `json:"qingId"`
	QuestionCode   string `json:"questionCode,omitempty"`
	FullDottedRank string `json:"fullDottedRank,omitempty"`
	InstNum        int    `json:"instNum"`
	Message        string `json:"message"`
}

const defaultRejectionMsg = "answer not accepted"

// Validate re-runs the condition evaluator over the finished tree: required
// questionings must have a non-blank answer, and every constraint's
// accept-if must hold for non-blank answers. Never fails fast; returns all
// failures together. Blank or hidden answers are normal states, not errors.
func Validate(tree *form.Tree, nodes []*AnswerNode, preferredLocales []string) ([]ValidationFailure, error) {
	v := &validator{
		tree:       tree,
		locales:    preferredLocales,
		visibility: map[string]bool{},
		values:     map[string]interface{}{},
	}
	if err := v.walk(nodes, 0); err != nil {
		return nil, err
	}
	return v.failures, nil
}

type validator struct {
	tree       *form.Tree
	locales    []string
	visibility map[string]bool
	values     map[string]interface{}
	failures   []ValidationFailure
}

func (v *validator) walk(nodes []*AnswerNode, instNum int) error {
	for _, node := range nodes {
		switch {
		case node.Set != nil:
			if err := v.checkQuestioning(node, instNum); err != nil {
				return err
			}
		case node.Instances != nil:
			v.visibility[node.Item.ID] = node.Visible
			for _, inst := range node.Instances {
				v.resetGroupItems(node.Item.ID)
				if err := v.walk(inst.Nodes, inst.InstNum); err != nil {
					return err
				}
			}
		default:
			v.visibility[node.Item.ID] = node.Visible
			if err := v.walk(node.Children, instNum); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) checkQuestioning(node *AnswerNode, instNum int) error {
	item := node.Item
	v.visibility[item.ID] = node.Visible
	v.values[item.ID] = node.Set.lookupValue()

	if !node.Visible {
		return nil
	}

	if item.Required && node.Set.Blank() {
		v.addFailure(node, instNum, "required")
		return nil
	}
	if node.Set.Blank() {
		return nil
	}

	for _, constraint := range item.Constraints {
		accepted, err := logicengine.Evaluate(constraint.ConditionSet(), v.lookup())
		if err != nil {
			return err
		}
		if !accepted {
			msg := constraint.RejectionMsg.Resolve(v.locales)
			if msg == "" {
				msg = defaultRejectionMsg
			}
			v.addFailure(node, instNum, msg)
		}
	}
	return nil
}

// resetGroupItems clears the evaluation context of a repeat group's
// descendants before each instance, so an item absent from one repetition
// does not inherit an earlier repetition's answer.
func (v *validator) resetGroupItems(groupID string) {
	for _, item := range v.tree.SortedChildren(groupID) {
		delete(v.visibility, item.ID)
		delete(v.values, item.ID)
		if item.IsGroup() {
			v.resetGroupItems(item.ID)
		}
	}
}

func (v *validator) addFailure(node *AnswerNode, instNum int, msg string) {
	v.failures = append(v.failures, ValidationFailure{
		QingID:         node.Item.ID,
		QuestionCode:   node.Item.Code(),
		FullDottedRank: v.tree.FullDottedRank(node.Item.ID),
		InstNum:        instNum,
		Message:        msg,
	})
}

func (v *validator) lookup() logicengine.AnswerLookup {
	return validatorLookup{v}
}

type validatorLookup struct{ v *validator }

func (l validatorLookup) Value(qingID string) interface{} {
	return l.v.values[qingID]
}

func (l validatorLookup) Visible(qingID string) bool {
	return l.v.visibility[qingID]
}
