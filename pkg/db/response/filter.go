package response

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	respTypes "github.com/aaarash/nemo/pkg/response/types"
	"github.com/aaarash/nemo/pkg/search"
)

func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// FindResponses applies a compiled response filter against the responses
// and answers collections and returns the matching page.
func (dbService *ResponseDBService) FindResponses(
	instanceID string,
	filter search.ResponseFilter,
	page int64,
	limit int64,
) ([]respTypes.Response, *PaginationInfos, error) {
	query, err := dbService.queryForFilter(instanceID, filter)
	if err != nil {
		return nil, nil, err
	}
	sort := bson.M{"createdAt": -1}
	return dbService.GetResponses(instanceID, query, sort, page, limit)
}

func (dbService *ResponseDBService) queryForFilter(instanceID string, filter search.ResponseFilter) (bson.M, error) {
	conditions := []bson.M{
		{"missionId": filter.MissionID},
	}

	if len(filter.FormIDs) > 0 {
		conditions = append(conditions, bson.M{"formId": bson.M{"$in": filter.FormIDs}})
	}
	if filter.StartTime != nil {
		conditions = append(conditions, bson.M{"createdAt": bson.M{"$gte": filter.StartTime.Unix()}})
	}
	if filter.EndTime != nil {
		conditions = append(conditions, bson.M{"createdAt": bson.M{"$lt": filter.EndTime.Unix()}})
	}
	if filter.Reviewed != nil {
		conditions = append(conditions, bson.M{"reviewed": *filter.Reviewed})
	}
	if filter.SubmitterName != "" {
		conditions = append(conditions, bson.M{"submitterName": containsRegex(filter.SubmitterName)})
	}
	if filter.GroupName != "" {
		conditions = append(conditions, bson.M{"submitterGroup": containsRegex(filter.GroupName)})
	}

	for _, clause := range filter.AnswerClauses {
		responseIDs, err := dbService.ResponseIDsForAnswerFilter(instanceID, answerClauseQuery(clause))
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, bson.M{"_id": bson.M{"$in": responseIDs}})
	}

	if filter.AdvancedText != "" {
		cond, err := dbService.advancedTextQuery(instanceID, filter.AdvancedText)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return bson.M{"$and": conditions}, nil
}

// answerClauseQuery builds the answers-collection query for one resolved
// {code}:value clause: any term may match, either textually or through a
// pre-resolved option node.
func answerClauseQuery(clause search.AnswerClause) bson.M {
	valueMatchers := bson.A{}
	for _, term := range clause.Terms {
		valueMatchers = append(valueMatchers, bson.M{"value": containsRegex(term)})
	}
	if len(clause.OptionNodeIDs) > 0 {
		valueMatchers = append(valueMatchers,
			bson.M{"optionNodeId": bson.M{"$in": clause.OptionNodeIDs}},
			bson.M{"optionNodeIds": bson.M{"$in": clause.OptionNodeIDs}},
		)
	}
	return bson.M{
		"qingId": bson.M{"$in": clause.QingIDs},
		"$or":    valueMatchers,
	}
}

// advancedTextQuery performs full-text matching over answer values and
// submitter names: every term must match somewhere on the response.
func (dbService *ResponseDBService) advancedTextQuery(instanceID string, text string) (bson.M, error) {
	terms := strings.Fields(text)
	conditions := []bson.M{}
	for _, term := range terms {
		responseIDs, err := dbService.ResponseIDsForAnswerFilter(instanceID, bson.M{
			"value": containsRegex(term),
		})
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, bson.M{"$or": bson.A{
			bson.M{"_id": bson.M{"$in": responseIDs}},
			bson.M{"submitterName": containsRegex(term)},
		}})
	}
	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return bson.M{"$and": conditions}, nil
}
