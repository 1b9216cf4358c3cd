package response

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aaarash/nemo/pkg/form/logicengine"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

// Answer wraps one persisted (or new blank) answer record together with the
// questioning it belongs to, so values can be casted per question type.
type Answer struct {
	respTypes.Answer
	Qing      *formTypes.FormItem
	OptionSet *formTypes.OptionSet
}

// Blank reports whether the answer holds no value. Detection is type-aware:
// empty text, missing option reference and absent media count as blank; the
// numeric value 0 and a present-but-empty geo pair do not.
func (a *Answer) Blank() bool {
	switch a.Qing.QType() {
	case formTypes.QTYPE_SELECT_ONE:
		return a.OptionNodeID == ""
	case formTypes.QTYPE_SELECT_MULTIPLE:
		return len(a.OptionNodeIDs) == 0
	case formTypes.QTYPE_DATETIME, formTypes.QTYPE_DATE, formTypes.QTYPE_TIME:
		return a.TimeValue == nil
	case formTypes.QTYPE_LOCATION:
		return a.Latitude == nil && a.Longitude == nil
	case formTypes.QTYPE_IMAGE:
		return a.MediaObjectID == ""
	default:
		return a.Value == ""
	}
}

// CastedValue returns the typed value of the answer per its question type:
// int/float64 for numerics, time.Time for temporal types, the option's
// canonical name for selects (";"-joined for select_multiple), "lat lng" for
// locations, the media object id for images, nil when blank.
func (a *Answer) CastedValue() interface{} {
	if a.Blank() {
		return nil
	}
	switch a.Qing.QType() {
	case formTypes.QTYPE_INTEGER:
		n, err := strconv.Atoi(strings.TrimSpace(a.Value))
		if err != nil {
			return a.Value
		}
		return n
	case formTypes.QTYPE_DECIMAL:
		f, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil {
			return a.Value
		}
		return f
	case formTypes.QTYPE_DATETIME, formTypes.QTYPE_DATE, formTypes.QTYPE_TIME:
		return *a.TimeValue
	case formTypes.QTYPE_SELECT_ONE:
		return a.optionName(a.OptionNodeID)
	case formTypes.QTYPE_SELECT_MULTIPLE:
		names := make([]string, 0, len(a.OptionNodeIDs))
		for _, nodeID := range a.OptionNodeIDs {
			names = append(names, a.optionName(nodeID))
		}
		return strings.Join(names, ";")
	case formTypes.QTYPE_LOCATION:
		return fmt.Sprintf("%s %s", formatCoord(a.Latitude), formatCoord(a.Longitude))
	case formTypes.QTYPE_IMAGE:
		return a.MediaObjectID
	default:
		return a.Value
	}
}

func (a *Answer) optionName(nodeID string) string {
	if a.OptionSet == nil {
		return ""
	}
	node := a.OptionSet.Root.FindNodeByID(nodeID)
	if node == nil || node.Option == nil {
		return ""
	}
	return node.Option.Canonical
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// lookupValue returns the comparison value handed to the condition
// evaluator, nil when blank.
func (a *Answer) lookupValue() interface{} {
	if a.Blank() {
		return nil
	}
	switch a.Qing.QType() {
	case formTypes.QTYPE_INTEGER:
		n, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil {
			return nil
		}
		return n
	case formTypes.QTYPE_DECIMAL:
		f, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		if err != nil {
			return nil
		}
		return f
	case formTypes.QTYPE_DATETIME, formTypes.QTYPE_DATE, formTypes.QTYPE_TIME:
		return *a.TimeValue
	case formTypes.QTYPE_SELECT_ONE:
		return logicengine.OptionValue{NodeID: a.OptionNodeID}
	case formTypes.QTYPE_SELECT_MULTIPLE:
		return logicengine.SelectedOptions(a.OptionNodeIDs)
	default:
		return a.Value
	}
}

// AnswerSet is the ordered sequence of answers for one questioning node.
// For a multilevel select it always holds one answer per option level,
// blank levels included.
type AnswerSet struct {
	QingID  string
	Answers []*Answer
}

// Blank reports whether every level of the set is blank.
func (s *AnswerSet) Blank() bool {
	for _, a := range s.Answers {
		if !a.Blank() {
			return false
		}
	}
	return true
}

// lookupValue condenses the set into one comparison value. Flat sets yield
// their single answer's value; multilevel sets yield the selected node ids
// across levels, compared with inc/ninc.
func (s *AnswerSet) lookupValue() interface{} {
	if len(s.Answers) == 1 {
		return s.Answers[0].lookupValue()
	}
	selected := logicengine.SelectedOptions{}
	for _, a := range s.Answers {
		if a.OptionNodeID != "" {
			selected = append(selected, a.OptionNodeID)
		}
	}
	if len(selected) == 0 {
		return nil
	}
	return selected
}

// AnswerInstance is one repetition of a repeatable group.
type AnswerInstance struct {
	InstNum int
	Nodes   []*AnswerNode
}

// AnswerNode mirrors one form item occurrence in the built answer tree. For
// a questioning it owns a Set; for a repeatable group ordered Instances; for
// a plain group its Children.
type AnswerNode struct {
	Item      *formTypes.FormItem
	Visible   bool
	Set       *AnswerSet
	Instances []*AnswerInstance
	Children  []*AnswerNode
}

// FirstCastedValue is a convenience accessor for the node's first answer
// value (nil for group nodes or blank sets).
func (n *AnswerNode) FirstCastedValue() interface{} {
	if n.Set == nil || len(n.Set.Answers) == 0 {
		return nil
	}
	return n.Set.Answers[0].CastedValue()
}
