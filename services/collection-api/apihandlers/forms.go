package apihandlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/aaarash/nemo/pkg/apihelpers/middlewares"
	"github.com/aaarash/nemo/pkg/form"
	formTypes "github.com/aaarash/nemo/pkg/form/types"
	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
	"github.com/aaarash/nemo/pkg/utils"
)

func (h *HttpEndpoints) AddFormManagementAPI(rg *gin.RouterGroup) {
	formsGroup := rg.Group("/forms")
	formsGroup.Use(mw.CollectionAuthMiddleware(h.tokenSignKey, h.allowedInstanceIDs))
	{
		formsGroup.GET("", h.getForms) // ?published=true
		formsGroup.POST("", mw.RequirePayload(), mw.IsCoordinator(), h.saveForm)
		formsGroup.GET("/:formID", h.getFormWithTree)
		formsGroup.POST("/:formID/publish", mw.IsCoordinator(), h.publishForm)
		formsGroup.DELETE("/:formID", mw.IsCoordinator(), h.deleteForm)

		formsGroup.POST("/:formID/items", mw.RequirePayload(), mw.IsCoordinator(), h.insertFormItem)
		formsGroup.PUT("/:formID/items/:itemID/move", mw.RequirePayload(), mw.IsCoordinator(), h.moveFormItem)
		formsGroup.DELETE("/:formID/items/:itemID", mw.IsCoordinator(), h.removeFormItem)
	}

	optionSetsGroup := rg.Group("/option-sets")
	optionSetsGroup.Use(mw.CollectionAuthMiddleware(h.tokenSignKey, h.allowedInstanceIDs))
	{
		optionSetsGroup.GET("", h.getOptionSets)
		optionSetsGroup.POST("", mw.RequirePayload(), mw.IsCoordinator(), h.saveOptionSet)
		optionSetsGroup.GET("/:optionSetID", h.getOptionSet)
		optionSetsGroup.DELETE("/:optionSetID", mw.IsCoordinator(), h.deleteOptionSet)
		optionSetsGroup.DELETE("/:optionSetID/nodes/:nodeID", mw.IsCoordinator(), h.deleteOptionNode)
	}
}

func (h *HttpEndpoints) getForms(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	publishedOnly := c.DefaultQuery("published", "") == "true"
	forms, err := h.formDBConn.GetFormsByMission(token.InstanceID, token.MissionID, publishedOnly)
	if err != nil {
		slog.Error("error fetching forms", slog.String("instanceID", token.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching forms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

func (h *HttpEndpoints) saveForm(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	var f formTypes.Form
	if err := c.ShouldBindJSON(&f); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.MissionID = token.MissionID

	// reject structurally broken item lists before they hit the DB
	scope := h.missionScope(token)
	optionSets, err := scope.OptionSetsForForm(f)
	if err != nil {
		slog.Error("error fetching option sets", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching option sets"})
		return
	}
	if _, err := form.NewTree(&f, optionSets); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.formDBConn.SaveForm(token.InstanceID, f); err != nil {
		slog.Error("error saving form", slog.String("formID", f.ID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving form"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": f})
}

func (h *HttpEndpoints) getFormWithTree(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")

	f, tree, err := h.loadFormTree(token.InstanceID, formID)
	if err != nil {
		slog.Warn("form not found", slog.String("formID", formID), slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}

	items := tree.Preorder()
	type itemView struct {
		formTypes.FormItem
		FullDottedRank string `json:"fullDottedRank"`
	}
	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = itemView{FormItem: *item, FullDottedRank: tree.FullDottedRank(item.ID)}
	}

	c.JSON(http.StatusOK, gin.H{"form": f, "items": views})
}

func (h *HttpEndpoints) publishForm(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")

	f, tree, err := h.loadFormTree(token.InstanceID, formID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}

	if errs := tree.Validate(); len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": messages})
		return
	}

	versionCode := utils.GenerateFormVersionCode([]string{f.CurrentVersion})
	if err := h.formDBConn.PublishForm(token.InstanceID, formID, versionCode); err != nil {
		slog.Error("error publishing form", slog.String("formID", formID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error publishing form"})
		return
	}
	slog.Info("form published", slog.String("instanceID", token.InstanceID), slog.String("formID", formID), slog.String("version", versionCode))
	c.JSON(http.StatusOK, gin.H{"version": versionCode})
}

func (h *HttpEndpoints) deleteForm(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")

	count, err := h.responseDBConn.GetResponsesCount(token.InstanceID, responseCountFilter(formID))
	if err != nil {
		slog.Error("error counting responses", slog.String("formID", formID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error counting responses"})
		return
	}
	if count > 0 {
		err := &form.ReferentialIntegrityError{Reason: form.CANT_DELETE_IF_HAS_ANSWERS}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": err.Reason})
		return
	}

	if err := h.formDBConn.DeleteForm(token.InstanceID, formID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}
	slog.Info("form deleted", slog.String("instanceID", token.InstanceID), slog.String("formID", formID))
	c.JSON(http.StatusOK, gin.H{"message": "form deleted"})
}

func (h *HttpEndpoints) insertFormItem(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")

	var item formTypes.FormItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.editFormTree(c, token, formID, func(tree *form.Tree) error {
		return tree.InsertItem(item)
	})
}

func (h *HttpEndpoints) moveFormItem(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")
	itemID := c.Param("itemID")

	var req struct {
		NewParentID string `json:"newParentId"`
		NewRank     int    `json:"newRank"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.editFormTree(c, token, formID, func(tree *form.Tree) error {
		return tree.MoveItem(itemID, req.NewParentID, req.NewRank)
	})
}

func (h *HttpEndpoints) removeFormItem(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	formID := c.Param("formID")
	itemID := c.Param("itemID")

	h.editFormTree(c, token, formID, func(tree *form.Tree) error {
		return tree.RemoveItem(itemID)
	})
}

// editFormTree loads the form, applies one tree edit and persists the
// renumbered item list.
func (h *HttpEndpoints) editFormTree(c *gin.Context, token *jwthandling.CollectionUserClaims, formID string, edit func(tree *form.Tree) error) {
	f, tree, err := h.loadFormTree(token.InstanceID, formID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		return
	}

	if err := edit(tree); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f.Items = tree.Items()
	if err := h.formDBConn.SaveForm(token.InstanceID, f); err != nil {
		slog.Error("error saving form", slog.String("formID", formID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving form"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": f})
}

func (h *HttpEndpoints) getOptionSets(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	sets, err := h.formDBConn.GetOptionSetsByMission(token.InstanceID, token.MissionID)
	if err != nil {
		slog.Error("error fetching option sets", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching option sets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"optionSets": sets})
}

func (h *HttpEndpoints) saveOptionSet(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	var optionSet formTypes.OptionSet
	if err := c.ShouldBindJSON(&optionSet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	optionSet.MissionID = token.MissionID

	if err := h.formDBConn.SaveOptionSet(token.InstanceID, optionSet); err != nil {
		slog.Error("error saving option set", slog.String("optionSetID", optionSet.ID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving option set"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"optionSet": optionSet})
}

func (h *HttpEndpoints) getOptionSet(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	optionSetID := c.Param("optionSetID")

	optionSet, err := h.formDBConn.GetOptionSetByID(token.InstanceID, optionSetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "option set not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"optionSet": optionSet})
}

// deleteOptionSet refuses while questionings or answers still reference the
// set; nothing is removed partially.
func (h *HttpEndpoints) deleteOptionSet(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	optionSetID := c.Param("optionSetID")

	optionSet, err := h.formDBConn.GetOptionSetByID(token.InstanceID, optionSetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "option set not found"})
		return
	}

	questionings, err := h.formDBConn.CountQuestioningsForOptionSet(token.InstanceID, optionSetID)
	if err != nil {
		slog.Error("error counting questionings", slog.String("optionSetID", optionSetID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error counting questionings"})
		return
	}
	if questionings > 0 {
		riErr := &form.ReferentialIntegrityError{Reason: form.CANT_DELETE_IF_HAS_QUESTIONS}
		c.JSON(http.StatusConflict, gin.H{"error": riErr.Error(), "reason": riErr.Reason})
		return
	}

	answers, err := h.responseDBConn.CountAnswersForOptionNodes(token.InstanceID, optionSet.AllNodeIDs())
	if err != nil {
		slog.Error("error counting answers", slog.String("optionSetID", optionSetID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error counting answers"})
		return
	}
	if answers > 0 {
		riErr := &form.ReferentialIntegrityError{Reason: form.CANT_DELETE_IF_HAS_ANSWERS}
		c.JSON(http.StatusConflict, gin.H{"error": riErr.Error(), "reason": riErr.Reason})
		return
	}

	if err := h.formDBConn.DeleteOptionSet(token.InstanceID, optionSetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "option set not found"})
		return
	}
	slog.Info("option set deleted", slog.String("instanceID", token.InstanceID), slog.String("optionSetID", optionSetID))
	c.JSON(http.StatusOK, gin.H{"message": "option set deleted"})
}

// deleteOptionNode removes a single node and its subtree from an option set.
// Answers referencing any node of the subtree block the deletion.
func (h *HttpEndpoints) deleteOptionNode(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	optionSetID := c.Param("optionSetID")
	nodeID := c.Param("nodeID")

	optionSet, err := h.formDBConn.GetOptionSetByID(token.InstanceID, optionSetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "option set not found"})
		return
	}
	node := optionSet.Root.FindNodeByID(nodeID)
	if node == nil || node.ID == optionSet.Root.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "option node not found"})
		return
	}

	answers, err := h.responseDBConn.CountAnswersForOptionNodes(token.InstanceID, node.SubtreeNodeIDs())
	if err != nil {
		slog.Error("error counting answers", slog.String("nodeID", nodeID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error counting answers"})
		return
	}
	if answers > 0 {
		riErr := &form.ReferentialIntegrityError{Reason: form.CANT_DELETE_IF_HAS_ANSWERS}
		c.JSON(http.StatusConflict, gin.H{"error": riErr.Error(), "reason": riErr.Reason})
		return
	}

	if err := h.formDBConn.DeleteOptionNode(token.InstanceID, optionSetID, nodeID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "option node not found"})
		return
	}
	slog.Info("option node deleted", slog.String("instanceID", token.InstanceID), slog.String("optionSetID", optionSetID), slog.String("nodeID", nodeID))
	c.JSON(http.StatusOK, gin.H{"message": "option node deleted"})
}
