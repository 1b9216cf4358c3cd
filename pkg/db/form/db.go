package form

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
	COLLECTION_NAME_FORMS       = "forms"
	COLLECTION_NAME_OPTION_SETS = "optionSets"
)

type FormDBService struct {
	DBClient        *mongo.Client
	timeout         int
	noCursorTimeout bool
	DBNamePrefix    string
	InstanceIDs     []string
}

func NewFormDBService(configs db.DBConfig) (*FormDBService, error) {
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

	formDBSc := &FormDBService{
		DBClient:        dbClient,
		timeout:         configs.Timeout,
		noCursorTimeout: configs.NoCursorTimeout,
		DBNamePrefix:    configs.DBNamePrefix,
		InstanceIDs:     configs.InstanceIDs,
	}

	if configs.RunIndexCreation {
		if err := formDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for form DB", slog.String("error", err.Error()))
		}
	}

	return formDBSc, nil
}

func (dbService *FormDBService) getDBName(instanceID string) string {
	return dbService.DBNamePrefix + instanceID + "_formDB"
}

func (dbService *FormDBService) collectionForms(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_FORMS)
}

func (dbService *FormDBService) collectionOptionSets(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_OPTION_SETS)
}

func (dbService *FormDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return db.ContextWithTimeout(dbService.timeout)
}

func (dbService *FormDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for form DB")
	for _, instanceID := range dbService.InstanceIDs {
		ctx, cancel := dbService.getContext()
		defer cancel()

		_, err := dbService.collectionForms(instanceID).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "missionId", Value: 1},
					{Key: "name", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "missionId", Value: 1},
					{Key: "published", Value: 1},
				},
			},
		})
		if err != nil {
			slog.Error("Error creating indexes for forms", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		_, err = dbService.collectionOptionSets(instanceID).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "missionId", Value: 1},
				{Key: "name", Value: 1},
			},
		})
		if err != nil {
			slog.Error("Error creating indexes for optionSets", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}
	}
	return nil
}
