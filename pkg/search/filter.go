package search

import (
	"time"

	formTypes "github.com/aaarash/nemo/pkg/form/types"
)

// SearchContext carries the request-scoped timezone explicitly into the
// compiler (no global session state). Date qualifiers are interpreted in
// Timezone, nil meaning UTC; option-name matching always considers all
// locales case-insensitively.
type SearchContext struct {
	Timezone *time.Location
}

func (c SearchContext) location() *time.Location {
	if c.Timezone == nil {
		return time.UTC
	}
	return c.Timezone
}

// AnswerQualifier describes a question code resolvable in the caller's
// mission scope: the questionings placing the question on forms and, for
// select types, the option set to match option names against.
type AnswerQualifier struct {
	QingIDs   []string
	QType     string
	OptionSet *formTypes.OptionSet
}

// Scope resolves names in the caller's mission. Implemented by the form DB
// service; tests use in-memory fakes.
type Scope interface {
	// FormIDsByName returns the ids of forms whose name matches
	// case-insensitively, empty when none do.
	FormIDsByName(name string) ([]string, error)
	// AnswerQualifierForCode resolves a {code} qualifier; ok is false when
	// no question with that code exists in the mission.
	AnswerQualifierForCode(code string) (AnswerQualifier, bool, error)
}

// AnswerClause is one resolved {code}:value qualifier: restrict to
// responses whose answer to one of the questionings matches any term. For
// select questions the matching option nodes are pre-resolved across all
// locales, case-insensitively.
type AnswerClause struct {
	QuestionCode  string   `json:"questionCode"`
	QingIDs       []string `json:"qingIds"`
	Terms         []string `json:"terms"`
	OptionNodeIDs []string `json:"optionNodeIds,omitempty"`
}

// ResponseFilter is the structured result of compiling a query: everything
// the persistence layer needs to build the storage query. The translation
// into an actual storage query happens outside the compiler.
type ResponseFilter struct {
	MissionID     string         `json:"missionId"`
	FormIDs       []string       `json:"formIds,omitempty"`
	StartTime     *time.Time     `json:"startTime,omitempty"`
	EndTime       *time.Time     `json:"endTime,omitempty"`
	Reviewed      *bool          `json:"reviewed,omitempty"`
	SubmitterName string         `json:"submitterName,omitempty"`
	GroupName     string         `json:"groupName,omitempty"`
	AnswerClauses []AnswerClause `json:"answerClauses,omitempty"`
	AdvancedText  string         `json:"advancedText,omitempty"`
}
