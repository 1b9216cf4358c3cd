package logicengine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	types "github.com/aaarash/nemo/pkg/form/types"
)

// AnswerLookup resolves the current state of earlier items during one
// evaluation pass. Value returns nil for blank or unanswered questionings;
// Visible reflects the item's computed display state including the states of
// its ancestors.
type AnswerLookup interface {
	Value(qingID string) interface{}
	Visible(qingID string) bool
}

// OptionValue is a select_one answer, compared by option node identity.
type OptionValue struct {
	NodeID string
}

// SelectedOptions is a select_multiple answer: the chosen option node ids.
type SelectedOptions []string

// Evaluate computes a condition set against the lookup. An empty set is
// always true. A condition whose left item is currently invisible is false
// regardless of operator, so an item depending on a hidden item can never
// become visible. Blank answers are normal data, not errors.
func Evaluate(cs *types.ConditionSet, lookup AnswerLookup) (bool, error) {
	if cs.Empty() {
		return true, nil
	}
	if len(cs.Conditions) == 1 {
		return evalCondition(cs.Conditions[0], lookup)
	}

	switch cs.Combination {
	case types.COMBINATION_ANY_MET:
		for _, cond := range cs.Conditions {
			met, err := evalCondition(cond, lookup)
			if err != nil {
				return false, err
			}
			if met {
				return true, nil
			}
		}
		return false, nil
	case types.COMBINATION_ALL_MET, "":
		for _, cond := range cs.Conditions {
			met, err := evalCondition(cond, lookup)
			if err != nil {
				return false, err
			}
			if !met {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("combination mode not known: %s", cs.Combination)
	}
}

// SkipRuleActive reports whether a skip rule fires given the current
// answers. A rule with SkipIf 'always' is always active.
func SkipRuleActive(rule types.SkipRule, lookup AnswerLookup) (bool, error) {
	if rule.SkipIf == types.SKIP_IF_ALWAYS {
		return true, nil
	}
	return Evaluate(rule.ConditionSet(), lookup)
}

func evalCondition(cond types.Condition, lookup AnswerLookup) (bool, error) {
	if cond.LeftQingID == "" {
		return false, errors.New("condition without left item")
	}
	if !lookup.Visible(cond.LeftQingID) {
		return false, nil
	}

	val := lookup.Value(cond.LeftQingID)
	if val == nil {
		// Blank left values satisfy only the negative operators.
		switch cond.Op {
		case types.OP_NEQ, types.OP_NINC:
			return true, nil
		default:
			return false, nil
		}
	}

	switch v := val.(type) {
	case float64:
		return compareNumeric(v, cond)
	case int:
		return compareNumeric(float64(v), cond)
	case int64:
		return compareNumeric(float64(v), cond)
	case time.Time:
		return compareTime(v, cond)
	case string:
		return compareString(v, cond)
	case OptionValue:
		return compareOption(v, cond)
	case SelectedOptions:
		return compareSelection(v, cond)
	default:
		return false, fmt.Errorf("could not compare answer value of type %T", val)
	}
}

func compareNumeric(left float64, cond types.Condition) (bool, error) {
	right, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
	if err != nil {
		return false, fmt.Errorf("condition value is not numeric: %s", cond.Value)
	}
	switch cond.Op {
	case types.OP_EQ:
		return left == right, nil
	case types.OP_NEQ:
		return left != right, nil
	case types.OP_LT:
		return left < right, nil
	case types.OP_GT:
		return left > right, nil
	case types.OP_LEQ:
		return left <= right, nil
	case types.OP_GEQ:
		return left >= right, nil
	default:
		return false, fmt.Errorf("operator not applicable to numeric answer: %s", cond.Op)
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

func parseTimeValue(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("condition value is not a valid date/time: %s", raw)
}

func compareTime(left time.Time, cond types.Condition) (bool, error) {
	right, err := parseTimeValue(cond.Value)
	if err != nil {
		return false, err
	}
	switch cond.Op {
	case types.OP_EQ:
		return left.Equal(right), nil
	case types.OP_NEQ:
		return !left.Equal(right), nil
	case types.OP_LT:
		return left.Before(right), nil
	case types.OP_GT:
		return left.After(right), nil
	case types.OP_LEQ:
		return !left.After(right), nil
	case types.OP_GEQ:
		return !left.Before(right), nil
	default:
		return false, fmt.Errorf("operator not applicable to date/time answer: %s", cond.Op)
	}
}

func compareString(left string, cond types.Condition) (bool, error) {
	right := cond.Value
	switch cond.Op {
	case types.OP_EQ:
		return left == right, nil
	case types.OP_NEQ:
		return left != right, nil
	case types.OP_LT:
		return left < right, nil
	case types.OP_GT:
		return left > right, nil
	case types.OP_LEQ:
		return left <= right, nil
	case types.OP_GEQ:
		return left >= right, nil
	default:
		return false, fmt.Errorf("operator not applicable to text answer: %s", cond.Op)
	}
}

func compareOption(left OptionValue, cond types.Condition) (bool, error) {
	switch cond.Op {
	case types.OP_EQ:
		return left.NodeID == cond.OptionNodeID, nil
	case types.OP_NEQ:
		return left.NodeID != cond.OptionNodeID, nil
	default:
		return false, fmt.Errorf("operator not applicable to select_one answer: %s", cond.Op)
	}
}

func compareSelection(left SelectedOptions, cond types.Condition) (bool, error) {
	contains := false
	for _, nodeID := range left {
		if nodeID == cond.OptionNodeID {
			contains = true
			break
		}
	}
	switch cond.Op {
	case types.OP_INC:
		return contains, nil
	case types.OP_NINC:
		return !contains, nil
	default:
		return false, fmt.Errorf("operator not applicable to select_multiple answer: %s", cond.Op)
	}
}
