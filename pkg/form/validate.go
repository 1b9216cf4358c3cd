package form

import (
	types "github.com/aaarash/nemo/pkg/form/types"
)

// Validate checks the structural invariants that must hold before a form can
// be published:
//   - every condition's left item exists and strictly precedes the item
//     owning the condition (no forward or self references); constraints may
//     additionally reference their own item, since an accept-if usually
//     checks the answer being given
//   - every skip rule destination exists and strictly follows the rule's
//     owner
//   - repeatable groups are not nested inside fragments
//   - select questionings reference a known option set
//
// All violations are collected and returned as StructuralErrors.
func (t *Tree) Validate() []error {
	var errs []error
	for _, item := range t.Preorder() {
		errs = append(errs, t.validateConditions(item, item.DisplayIf, "display condition", false)...)

		if item.IsGroup() {
			if item.Repeatable {
				for _, ancestor := range t.AncestorGroups(item.ID) {
					if ancestor.Fragment {
						errs = append(errs, &StructuralError{ItemID: item.ID, Msg: "repeat group nested inside fragment"})
					}
				}
			}
			continue
		}

		for _, constraint := range item.Constraints {
			cs := constraint.ConditionSet()
			errs = append(errs, t.validateConditions(item, cs, "constraint", true)...)
		}
		for _, rule := range item.SkipRules {
			if rule.SkipIf != types.SKIP_IF_ALWAYS {
				cs := types.ConditionSet{Combination: rule.SkipIf, Conditions: rule.Conditions}
				errs = append(errs, t.validateConditions(item, &cs, "skip rule", false)...)
			}
			if rule.Destination == types.SKIP_DEST_ITEM {
				if t.Item(rule.DestItemID) == nil {
					errs = append(errs, &StructuralError{ItemID: item.ID, Msg: "skip rule destination does not exist"})
				} else if !t.Precedes(item.ID, rule.DestItemID) {
					errs = append(errs, &StructuralError{ItemID: item.ID, Msg: "skip rule destination must come after the rule's item"})
				}
			}
		}

		if item.SelectType() {
			if t.OptionSetFor(item) == nil {
				errs = append(errs, &StructuralError{ItemID: item.ID, Msg: "select questioning without option set"})
			}
		}
	}
	return errs
}

func (t *Tree) validateConditions(owner *types.FormItem, cs *types.ConditionSet, what string, allowSelf bool) []error {
	if cs.Empty() {
		return nil
	}
	var errs []error
	for _, cond := range cs.Conditions {
		left := t.Item(cond.LeftQingID)
		if left == nil {
			errs = append(errs, &StructuralError{ItemID: owner.ID, Msg: what + " references unknown item"})
			continue
		}
		if !left.IsQuestioning() {
			errs = append(errs, &StructuralError{ItemID: owner.ID, Msg: what + " must reference a questioning"})
			continue
		}
		if allowSelf && cond.LeftQingID == owner.ID {
			continue
		}
		if !t.Precedes(cond.LeftQingID, owner.ID) {
			errs = append(errs, &StructuralError{ItemID: owner.ID, Msg: what + " references an item that does not precede it"})
		}
	}
	return errs
}
