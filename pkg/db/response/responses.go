package response

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

func (dbService *ResponseDBService) GetResponseByID(instanceID string, responseID string) (response respTypes.Response, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": responseID}
	err = dbService.collectionResponses(instanceID).FindOne(ctx, filter).Decode(&response)
	return response, err
}

// get paginated responses by query
func (dbService *ResponseDBService) GetResponses(instanceID string, filter bson.M, sort bson.M, page int64, limit int64) (responses []respTypes.Response, paginationInfo *PaginationInfos, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	totalCount, err := dbService.GetResponsesCount(instanceID, filter)
	if err != nil {
		return responses, nil, err
	}

	paginationInfo = prepPaginationInfos(
		totalCount,
		page,
		limit,
	)

	skip := (paginationInfo.CurrentPage - 1) * paginationInfo.PageSize

	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(paginationInfo.PageSize)
	cursor, err := dbService.collectionResponses(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return responses, nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &responses)
	if err != nil {
		return responses, nil, err
	}

	return responses, paginationInfo, nil
}

func (dbService *ResponseDBService) GetResponsesCount(instanceID string, filter bson.M) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	return dbService.collectionResponses(instanceID).CountDocuments(ctx, filter)
}

// SaveResponseWithAnswers writes the response document, upserts the given
// answers and removes the deleted ones in one transaction, so a response is
// never persisted with a partial answer set.
func (dbService *ResponseDBService) SaveResponseWithAnswers(
	instanceID string,
	resp respTypes.Response,
	answers []respTypes.Answer,
	deletedAnswerIDs []string,
) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	session, err := dbService.DBClient.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		upsert := true
		_, err := dbService.collectionResponses(instanceID).ReplaceOne(
			sessCtx,
			bson.M{"_id": resp.ID},
			resp,
			&options.ReplaceOptions{Upsert: &upsert},
		)
		if err != nil {
			return nil, err
		}

		if len(answers) > 0 {
			models := make([]mongo.WriteModel, len(answers))
			for i, answer := range answers {
				models[i] = mongo.NewReplaceOneModel().
					SetFilter(bson.M{"_id": answer.ID}).
					SetReplacement(answer).
					SetUpsert(true)
			}
			if _, err := dbService.collectionAnswers(instanceID).BulkWrite(sessCtx, models); err != nil {
				return nil, err
			}
		}

		if len(deletedAnswerIDs) > 0 {
			_, err := dbService.collectionAnswers(instanceID).DeleteMany(sessCtx, bson.M{
				"_id": bson.M{"$in": deletedAnswerIDs},
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (dbService *ResponseDBService) MarkResponseReviewed(instanceID string, responseID string, reviewed bool) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": responseID}
	update := bson.M{"$set": bson.M{"reviewed": reviewed}}
	res, err := dbService.collectionResponses(instanceID).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return errors.New("response not found")
	}
	return nil
}

// DeleteResponse removes a response and all of its answers.
func (dbService *ResponseDBService) DeleteResponse(instanceID string, responseID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	session, err := dbService.DBClient.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := dbService.collectionResponses(instanceID).DeleteOne(sessCtx, bson.M{"_id": responseID})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount < 1 {
			return nil, errors.New("response not found")
		}
		_, err = dbService.collectionAnswers(instanceID).DeleteMany(sessCtx, bson.M{"responseId": responseID})
		return nil, err
	})
	return err
}

// FindAndExecuteOnResponses streams responses matching the filter through
// fn, for batch jobs that should not load everything into memory.
func (dbService *ResponseDBService) FindAndExecuteOnResponses(
	ctx context.Context,
	instanceID string,
	filter bson.M,
	sort bson.M,
	returnOnError bool,
	fn func(r respTypes.Response) error,
) error {
	opts := options.Find().SetSort(sort)
	if dbService.noCursorTimeout {
		opts.SetNoCursorTimeout(true)
	}

	cursor, err := dbService.collectionResponses(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var response respTypes.Response
		if err = cursor.Decode(&response); err != nil {
			if returnOnError {
				return err
			}
			continue
		}
		if err = fn(response); err != nil {
			if returnOnError {
				return err
			}
		}
	}
	return cursor.Err()
}
