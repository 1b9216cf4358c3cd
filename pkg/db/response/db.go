package response

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aaarash/nemo/pkg/db"
)

// collection names
const (
	COLLECTION_NAME_RESPONSES = "responses"
	COLLECTION_NAME_ANSWERS   = "answers"
)

type ResponseDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBNamePrefix    string
	InstanceIDs     []string
}

func NewResponseDBService(configs db.DBConfig) (*ResponseDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()
	if err != nil {
		return nil, err
	}

	responseDBSc := &ResponseDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBNamePrefix:    configs.DBNamePrefix,
		InstanceIDs:     configs.InstanceIDs,
	}

	if configs.RunIndexCreation {
		if err := responseDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for response DB", slog.String("error", err.Error()))
		}
	}

	return responseDBSc, nil
}

func (dbService *ResponseDBService) getDBName(instanceID string) string {
	return dbService.DBNamePrefix + instanceID + "_responseDB"
}

func (dbService *ResponseDBService) collectionResponses(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_RESPONSES)
}

func (dbService *ResponseDBService) collectionAnswers(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_ANSWERS)
}

func (dbService *ResponseDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return db.ContextWithTimeout(dbService.timeout)
}

func (dbService *ResponseDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for response DB")
	for _, instanceID := range dbService.InstanceIDs {
		ctx, cancel := dbService.getContext()
		defer cancel()

		_, err := dbService.collectionResponses(instanceID).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "missionId", Value: 1},
					{Key: "formId", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "missionId", Value: 1},
					{Key: "createdAt", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "submitterName", Value: 1},
				},
			},
		})
		if err != nil {
			slog.Error("Error creating indexes for responses", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		_, err = dbService.collectionAnswers(instanceID).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "responseId", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "qingId", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "optionNodeId", Value: 1},
				},
			},
		})
		if err != nil {
			slog.Error("Error creating indexes for answers", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}
	}
	return nil
}
