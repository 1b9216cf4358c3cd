package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mw "github.com/aaarash/nemo/pkg/apihelpers/middlewares"
	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
	"github.com/aaarash/nemo/pkg/response"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

func (h *HttpEndpoints) AddResponsesAPI(rg *gin.RouterGroup) {
	responsesGroup := rg.Group("/responses")
	responsesGroup.Use(mw.CollectionAuthMiddleware(h.tokenSignKey, h.allowedInstanceIDs))
	{
		responsesGroup.GET("", h.getResponses) // ?q=searchQuery&page=1&limit=10&tz=Europe/Berlin
		responsesGroup.POST("/:formID", mw.RequirePayload(), h.submitResponse)
		responsesGroup.GET("/:formID/:responseID", h.renderResponse)
		responsesGroup.PUT("/:formID/:responseID/review", mw.IsCoordinator(), h.reviewResponse)
		responsesGroup.DELETE("/:formID/:responseID", mw.IsCoordinator(), h.deleteResponse)
	}
}

func (h *HttpEndpoints) responseService() response.Service {
	return response.Service{
		Store:            h.responseDBConn,
		PreferredLocales: h.preferredLocales,
	}
}

func (h *HttpEndpoints) submitResponse(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")

	var req struct {
		ResponseID string             `json:"responseId"`
		Source     string             `json:"source"`
		Answers    []respTypes.Answer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, tree, err := h.loadFormTree(token.InstanceID, formID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}
	if !f.Published {
		c.JSON(http.StatusBadRequest, gin.H{"error": "form is not published"})
		return
	}

	now := time.Now().Unix()
	resp := respTypes.Response{
		ID:            req.ResponseID,
		FormID:        formID,
		MissionID:     token.MissionID,
		SubmitterID:   token.ID,
		SubmitterName: token.Payload["name"],
		Source:        req.Source,
		CreatedAt:     now,
		SubmittedAt:   now,
	}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if resp.Source == "" {
		resp.Source = respTypes.SOURCE_WEB
	}

	failures, err := h.responseService().SaveResponse(token.InstanceID, tree, resp, req.Answers)
	if err != nil {
		slog.Error("error saving response", slog.String("formID", formID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving response"})
		return
	}
	if len(failures) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"failures": failures})
		return
	}

	slog.Info("response saved", slog.String("instanceID", token.InstanceID), slog.String("formID", formID), slog.String("responseID", resp.ID))
	c.JSON(http.StatusOK, gin.H{"responseId": resp.ID})
}

func (h *HttpEndpoints) renderResponse(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")
	responseID := c.Param("responseID")

	resp, err := h.responseDBConn.GetResponseByID(token.InstanceID, responseID)
	if err != nil || resp.FormID != formID {
		c.JSON(http.StatusNotFound, gin.H{"error": "response not found"})
		return
	}

	_, tree, err := h.loadFormTree(token.InstanceID, resp.FormID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}

	nodes, err := h.responseService().BuildForRender(token.InstanceID, tree, resp)
	if err != nil {
		slog.Error("error building answer tree", slog.String("responseID", responseID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error building answer tree"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": resp, "answerTree": nodes})
}

func (h *HttpEndpoints) reviewResponse(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	responseID := c.Param("responseID")

	var req struct {
		Reviewed bool `json:"reviewed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.responseDBConn.MarkResponseReviewed(token.InstanceID, responseID, req.Reviewed); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "response not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "response updated"})
}

func (h *HttpEndpoints) deleteResponse(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	responseID := c.Param("responseID")

	if err := h.responseDBConn.DeleteResponse(token.InstanceID, responseID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "response not found"})
		return
	}
	slog.Info("response deleted", slog.String("instanceID", token.InstanceID), slog.String("responseID", responseID))
	c.JSON(http.StatusOK, gin.H{"message": "response deleted"})
}
