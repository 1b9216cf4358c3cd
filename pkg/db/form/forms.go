package form

import (
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	formTypes "github.com/aaarash/nemo/pkg/form/types"
)

func (dbService *FormDBService) SaveForm(instanceID string, form formTypes.Form) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": form.ID}
	upsert := true
	_, err := dbService.collectionForms(instanceID).ReplaceOne(ctx, filter, form, &options.ReplaceOptions{
		Upsert: &upsert,
	})
	return err
}

func (dbService *FormDBService) GetFormByID(instanceID string, formID string) (formTypes.Form, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var form formTypes.Form
	filter := bson.M{"_id": formID}
	err := dbService.collectionForms(instanceID).FindOne(ctx, filter).Decode(&form)
	return form, err
}

func (dbService *FormDBService) GetFormsByMission(instanceID string, missionID string, publishedOnly bool) ([]formTypes.Form, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"missionId": missionID}
	if publishedOnly {
		filter["published"] = true
	}

	cursor, err := dbService.collectionForms(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var forms []formTypes.Form
	if err := cursor.All(ctx, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

// GetFormIDsByName looks up forms by case-insensitive name match.
func (dbService *FormDBService) GetFormIDsByName(instanceID string, missionID string, name string) ([]string, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"missionId": missionID,
		"name": primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(name) + "$",
			Options: "i",
		},
	}

	cursor, err := dbService.collectionForms(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var forms []formTypes.Form
	if err := cursor.All(ctx, &forms); err != nil {
		return nil, err
	}

	ids := make([]string, len(forms))
	for i, f := range forms {
		ids[i] = f.ID
	}
	return ids, nil
}

// PublishForm marks the form published and stamps a fresh version code.
func (dbService *FormDBService) PublishForm(instanceID string, formID string, versionCode string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": formID}
	update := bson.M{
		"$set": bson.M{
			"published":      true,
			"currentVersion": versionCode,
		},
	}
	res, err := dbService.collectionForms(instanceID).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return errors.New("form not found")
	}
	return nil
}

func (dbService *FormDBService) UnpublishForm(instanceID string, formID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": formID}
	update := bson.M{"$set": bson.M{"published": false}}
	res, err := dbService.collectionForms(instanceID).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return errors.New("form not found")
	}
	return nil
}

func (dbService *FormDBService) DeleteForm(instanceID string, formID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"_id": formID}
	res, err := dbService.collectionForms(instanceID).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return errors.New("form not found")
	}
	return nil
}
