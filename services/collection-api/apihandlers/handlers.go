package apihandlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	formDB "github.com/aaarash/nemo/pkg/db/form"
	responseDB "github.com/aaarash/nemo/pkg/db/response"
	"github.com/aaarash/nemo/pkg/form"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HttpEndpoints struct {
	formDBConn         *formDB.FormDBService
	responseDBConn     *responseDB.ResponseDBService
	tokenSignKey       string
	tokenExpiresIn     time.Duration
	allowedInstanceIDs []string
	preferredLocales   []string
	mediaStoragePath   string
}

func NewHTTPHandler(
	tokenSignKey string,
	tokenExpiresIn time.Duration,
	formDBConn *formDB.FormDBService,
	responseDBConn *responseDB.ResponseDBService,
	allowedInstanceIDs []string,
	preferredLocales []string,
	mediaStoragePath string,
) *HttpEndpoints {
	return &HttpEndpoints{
		tokenSignKey:       tokenSignKey,
		tokenExpiresIn:     tokenExpiresIn,
		formDBConn:         formDBConn,
		responseDBConn:     responseDBConn,
		allowedInstanceIDs: allowedInstanceIDs,
		preferredLocales:   preferredLocales,
		mediaStoragePath:   mediaStoragePath,
	}
}

func (h *HttpEndpoints) missionScope(token *jwthandling.CollectionUserClaims) formDB.MissionScope {
	return formDB.MissionScope{
		DB:         h.formDBConn,
		InstanceID: token.InstanceID,
		MissionID:  token.MissionID,
	}
}

func responseCountFilter(formID string) bson.M {
	return bson.M{"formId": formID}
}

// loadFormTree fetches a form with its option sets and assembles the tree.
func (h *HttpEndpoints) loadFormTree(instanceID string, formID string) (formTypes.Form, *form.Tree, error) {
	f, err := h.formDBConn.GetFormByID(instanceID, formID)
	if err != nil {
		return f, nil, err
	}

	scope := formDB.MissionScope{DB: h.formDBConn, InstanceID: instanceID, MissionID: f.MissionID}
	optionSets, err := scope.OptionSetsForForm(f)
	if err != nil {
		return f, nil, err
	}

	tree, err := form.NewTree(&f, optionSets)
	if err != nil {
		return f, nil, err
	}
	return f, tree, nil
}
