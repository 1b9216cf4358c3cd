package form

import (
	"strings"

	formTypes "github.com/aaarash/nemo/pkg/form/types"
	"github.com/aaarash/nemo/pkg/search"
)

// MissionScope adapts the form DB service to the search compiler's name
// resolution for one instance and mission.
type MissionScope struct {
	DB         *FormDBService
	InstanceID string
	MissionID  string
}

func (s MissionScope) FormIDsByName(name string) ([]string, error) {
	return s.DB.GetFormIDsByName(s.InstanceID, s.MissionID, name)
}

func (s MissionScope) AnswerQualifierForCode(code string) (search.AnswerQualifier, bool, error) {
	forms, err := s.DB.GetFormsByMission(s.InstanceID, s.MissionID, false)
	if err != nil {
		return search.AnswerQualifier{}, false, err
	}

	qualifier := search.AnswerQualifier{}
	optionSetID := ""
	for _, f := range forms {
		for _, item := range f.Items {
			if !item.IsQuestioning() || item.Question == nil {
				continue
			}
			if !strings.EqualFold(item.Question.Code, code) {
				continue
			}
			qualifier.QingIDs = append(qualifier.QingIDs, item.ID)
			qualifier.QType = item.Question.QType
			if item.Question.OptionSetID != "" {
				optionSetID = item.Question.OptionSetID
			}
		}
	}
	if len(qualifier.QingIDs) < 1 {
		return search.AnswerQualifier{}, false, nil
	}

	if optionSetID != "" {
		optionSet, err := s.DB.GetOptionSetByID(s.InstanceID, optionSetID)
		if err != nil {
			return search.AnswerQualifier{}, false, err
		}
		qualifier.OptionSet = &optionSet
	}
	return qualifier, true, nil
}

// OptionSetsForForm loads all option sets referenced by a form's questions,
// keyed by id, for tree construction.
func (s MissionScope) OptionSetsForForm(f formTypes.Form) (map[string]*formTypes.OptionSet, error) {
	ids := []string{}
	seen := map[string]bool{}
	for _, item := range f.Items {
		if item.IsQuestioning() && item.Question != nil && item.Question.OptionSetID != "" && !seen[item.Question.OptionSetID] {
			seen[item.Question.OptionSetID] = true
			ids = append(ids, item.Question.OptionSetID)
		}
	}
	if len(ids) == 0 {
		return map[string]*formTypes.OptionSet{}, nil
	}
	return s.DB.GetOptionSetsByIDs(s.InstanceID, ids)
}
