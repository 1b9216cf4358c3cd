package types

// Condition operators
const (
	OP_EQ   = "eq"
	OP_NEQ  = "neq"
	OP_LT   = "lt"
	OP_GT   = "gt"
	OP_LEQ  = "leq"
	OP_GEQ  = "geq"
	OP_INC  = "inc"
	OP_NINC = "ninc"
)

// Condition set combination modes
const (
	COMBINATION_ALL_MET = "all_met"
	COMBINATION_ANY_MET = "any_met"
)

// Skip rule trigger modes
const (
	SKIP_IF_ALWAYS  = "always"
	SKIP_IF_ALL_MET = "all_met"
	SKIP_IF_ANY_MET = "any_met"
)

// Skip rule destinations
const (
	SKIP_DEST_ITEM = "item"
	SKIP_DEST_END  = "end"
)

// Condition compares the current answer of an earlier questioning (the left
// item) against a literal value or an option. Option comparisons go by option
// node identity, never by display label.
type Condition struct {
	ID           string `bson:"id" json:"id"`
	LeftQingID   string `bson:"leftQingId" json:"leftQingId"`
	Op           string `bson:"op" json:"op"`
	Value        string `bson:"value,omitempty" json:"value,omitempty"`
	OptionNodeID string `bson:"optionNodeId,omitempty" json:"optionNodeId,omitempty"`
}

// ConditionSet is a flat boolean combination of conditions. An empty set is
// always true. With a single condition the combination mode is irrelevant.
type ConditionSet struct {
	Combination string      `bson:"combination,omitempty" json:"combination,omitempty"`
	Conditions  []Condition `bson:"conditions,omitempty" json:"conditions,omitempty"`
}

// Empty reports whether the set has no conditions (evaluates to "always").
func (cs *ConditionSet) Empty() bool {
	return cs == nil || len(cs.Conditions) == 0
}

// SkipRule jumps over items up to a later destination item (or the end of the
// form) when its conditions are met.
type SkipRule struct {
	ID          string      `bson:"id" json:"id"`
	Destination string      `bson:"destination" json:"destination"` // 'item' or 'end'
	DestItemID  string      `bson:"destItemId,omitempty" json:"destItemId,omitempty"`
	SkipIf      string      `bson:"skipIf" json:"skipIf"` // 'always', 'all_met' or 'any_met'
	Conditions  []Condition `bson:"conditions,omitempty" json:"conditions,omitempty"`
}

// ConditionSet returns the rule's conditions as an evaluatable set. A rule
// with SkipIf 'always' yields an empty set.
func (sr SkipRule) ConditionSet() *ConditionSet {
	if sr.SkipIf == SKIP_IF_ALWAYS {
		return &ConditionSet{}
	}
	return &ConditionSet{Combination: sr.SkipIf, Conditions: sr.Conditions}
}

// Constraint rejects otherwise valid answers when its accept-if conditions
// are not met. The rejection message is translated.
type Constraint struct {
	ID           string       `bson:"id" json:"id"`
	AcceptIf     string       `bson:"acceptIf" json:"acceptIf"` // 'all_met' or 'any_met'
	Conditions   []Condition  `bson:"conditions" json:"conditions"`
	RejectionMsg Translations `bson:"rejectionMsg,omitempty" json:"rejectionMsg,omitempty"`
}

// ConditionSet returns the constraint's accept-if conditions.
func (c Constraint) ConditionSet() *ConditionSet {
	return &ConditionSet{Combination: c.AcceptIf, Conditions: c.Conditions}
}
