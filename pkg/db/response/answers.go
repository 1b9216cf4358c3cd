package response

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

// GetAnswersForResponse loads all persisted answers of one response, in
// creation order. The mission id is accepted for symmetry with the store
// interface; answers are already scoped by response id.
func (dbService *ResponseDBService) GetAnswersForResponse(instanceID string, missionID string, responseID string) ([]respTypes.Answer, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"responseId": responseID}
	opts := options.Find().SetSort(bson.M{"createdAt": 1})

	cursor, err := dbService.collectionAnswers(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []respTypes.Answer
	if err := cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// CountAnswersForOptionNodes counts answers selecting any of the given
// option nodes, single or multilevel or multiple selects alike.
func (dbService *ResponseDBService) CountAnswersForOptionNodes(instanceID string, optionNodeIDs []string) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"optionNodeId": bson.M{"$in": optionNodeIDs}},
		bson.M{"optionNodeIds": bson.M{"$in": optionNodeIDs}},
	}}
	return dbService.collectionAnswers(instanceID).CountDocuments(ctx, filter)
}

func (dbService *ResponseDBService) CountAnswersForQuestionings(instanceID string, qingIDs []string) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"qingId": bson.M{"$in": qingIDs}}
	return dbService.collectionAnswers(instanceID).CountDocuments(ctx, filter)
}

// ResponseIDsForAnswerFilter returns the ids of responses having at least
// one answer matching the given answer-collection filter. Used to apply
// answer search clauses against the responses collection.
func (dbService *ResponseDBService) ResponseIDsForAnswerFilter(instanceID string, filter bson.M) ([]string, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	ids, err := dbService.collectionAnswers(instanceID).Distinct(ctx, "responseId", filter)
	if err != nil {
		return nil, err
	}

	responseIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := id.(string); ok {
			responseIDs = append(responseIDs, s)
		}
	}
	return responseIDs, nil
}
