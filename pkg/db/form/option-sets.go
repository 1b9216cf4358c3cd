package form

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	formTypes "github.com/aaarash/nemo/pkg/form/types"
)

func (dbService *FormDBService) SaveOptionSet(instanceID string, optionSet formTypes.OptionSet) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": optionSet.ID}
	upsert := true
	_, err := dbService.collectionOptionSets(instanceID).ReplaceOne(ctx, filter, optionSet, &options.ReplaceOptions{
		Upsert: &upsert,
	})
	return err
}

func (dbService *FormDBService) GetOptionSetByID(instanceID string, optionSetID string) (formTypes.OptionSet, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var optionSet formTypes.OptionSet
	filter := bson.M{"_id": optionSetID}
	err := dbService.collectionOptionSets(instanceID).FindOne(ctx, filter).Decode(&optionSet)
	return optionSet, err
}

func (dbService *FormDBService) GetOptionSetsByIDs(instanceID string, optionSetIDs []string) (map[string]*formTypes.OptionSet, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": bson.M{"$in": optionSetIDs}}
	cursor, err := dbService.collectionOptionSets(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []formTypes.OptionSet
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}

	byID := make(map[string]*formTypes.OptionSet, len(sets))
	for i := range sets {
		byID[sets[i].ID] = &sets[i]
	}
	return byID, nil
}

func (dbService *FormDBService) GetOptionSetsByMission(instanceID string, missionID string) ([]formTypes.OptionSet, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"missionId": missionID}
	cursor, err := dbService.collectionOptionSets(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []formTypes.OptionSet
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// CountQuestioningsForOptionSet counts questionings on any form that
// reference the given option set.
func (dbService *FormDBService) CountQuestioningsForOptionSet(instanceID string, optionSetID string) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"items": bson.M{"$elemMatch": bson.M{
		"type":                 formTypes.ITEM_TYPE_QUESTIONING,
		"question.optionSetId": optionSetID,
	}}}
	return dbService.collectionForms(instanceID).CountDocuments(ctx, filter)
}

// DeleteOptionNode removes one option node (and its subtree) from a stored
// option set and persists the renumbered set. Referential checks against
// existing answers are the caller's responsibility.
func (dbService *FormDBService) DeleteOptionNode(instanceID string, optionSetID string, nodeID string) error {
	optionSet, err := dbService.GetOptionSetByID(instanceID, optionSetID)
	if err != nil {
		return err
	}
	if !optionSet.RemoveNode(nodeID) {
		return errors.New("option node not found")
	}
	return dbService.SaveOptionSet(instanceID, optionSet)
}

func (dbService *FormDBService) DeleteOptionSet(instanceID string, optionSetID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": optionSetID}
	res, err := dbService.collectionOptionSets(instanceID).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return errors.New("option set not found")
	}
	return nil
}
