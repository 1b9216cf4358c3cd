package types

// Form item variants
const (
	ITEM_TYPE_GROUP       = "group"
	ITEM_TYPE_QUESTIONING = "questioning"
)

// Question types
const (
	QTYPE_TEXT            = "text"
	QTYPE_LONG_TEXT       = "long_text"
	QTYPE_INTEGER         = "integer"
	QTYPE_DECIMAL         = "decimal"
	QTYPE_DATETIME        = "datetime"
	QTYPE_DATE            = "date"
	QTYPE_TIME            = "time"
	QTYPE_SELECT_ONE      = "select_one"
	QTYPE_SELECT_MULTIPLE = "select_multiple"
	QTYPE_LOCATION        = "location"
	QTYPE_IMAGE           = "image"
)

// Question is the reusable definition a questioning places on a form. One
// question may appear on multiple forms via separate questionings.
type Question struct {
	ID          string       `bson:"id" json:"id"`
	Code        string       `bson:"code" json:"code"`
	QType       string       `bson:"qtype" json:"qtype"`
	OptionSetID string       `bson:"optionSetId,omitempty" json:"optionSetId,omitempty"`
	NameTrans   Translations `bson:"nameTranslations,omitempty" json:"nameTranslations,omitempty"`
	HintTrans   Translations `bson:"hintTranslations,omitempty" json:"hintTranslations,omitempty"`
}

// FormItem is one node of a form's item hierarchy, stored flat (ParentID +
// Rank) like the original form_items table. Type discriminates the two
// variants: a group carries the group attributes, a questioning wraps a
// question and the answer-level rules.
type FormItem struct {
	ID       string `bson:"id" json:"id"`
	Type     string `bson:"type" json:"type"` // 'group' or 'questioning'
	ParentID string `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Rank     int    `bson:"rank" json:"rank"` // 1-based among siblings

	DisplayIf *ConditionSet `bson:"displayIf,omitempty" json:"displayIf,omitempty"`
	Hidden    bool          `bson:"hidden,omitempty" json:"hidden,omitempty"`

	// Group attributes
	Repeatable bool         `bson:"repeatable,omitempty" json:"repeatable,omitempty"`
	OneScreen  bool         `bson:"oneScreen,omitempty" json:"oneScreen,omitempty"`
	Fragment   bool         `bson:"fragment,omitempty" json:"fragment,omitempty"`
	GroupName  Translations `bson:"groupName,omitempty" json:"groupName,omitempty"`

	// Questioning attributes
	Question    *Question    `bson:"question,omitempty" json:"question,omitempty"`
	Required    bool         `bson:"required,omitempty" json:"required,omitempty"`
	SkipRules   []SkipRule   `bson:"skipRules,omitempty" json:"skipRules,omitempty"`
	Constraints []Constraint `bson:"constraints,omitempty" json:"constraints,omitempty"`
}

// IsGroup reports whether the item is a group.
func (fi *FormItem) IsGroup() bool {
	return fi.Type == ITEM_TYPE_GROUP
}

// IsQuestioning reports whether the item is a questioning.
func (fi *FormItem) IsQuestioning() bool {
	return fi.Type == ITEM_TYPE_QUESTIONING
}

// Code returns the question code for questionings, empty for groups.
func (fi *FormItem) Code() string {
	if fi.Question == nil {
		return ""
	}
	return fi.Question.Code
}

// QType returns the question type for questionings, empty for groups.
func (fi *FormItem) QType() string {
	if fi.Question == nil {
		return ""
	}
	return fi.Question.QType
}

// SelectType reports whether the questioning refers to an option set.
func (fi *FormItem) SelectType() bool {
	qt := fi.QType()
	return qt == QTYPE_SELECT_ONE || qt == QTYPE_SELECT_MULTIPLE
}

// Form is a published or draft survey definition for one mission. Items is
// the flat item list; the tree shape is rebuilt from ParentID and Rank.
type Form struct {
	ID             string     `bson:"_id" json:"id"`
	MissionID      string     `bson:"missionId" json:"missionId"`
	Name           string     `bson:"name" json:"name"`
	Published      bool       `bson:"published" json:"published"`
	CurrentVersion string     `bson:"currentVersion,omitempty" json:"currentVersion,omitempty"`
	SMSable        bool       `bson:"smsable,omitempty" json:"smsable,omitempty"`
	Items          []FormItem `bson:"items" json:"items"`
}
