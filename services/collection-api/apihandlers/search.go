package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aaarash/nemo/pkg/apihelpers"
	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
	"github.com/aaarash/nemo/pkg/search"
)

// getResponses lists responses, optionally narrowed by a search query
// string compiled against the caller's mission.
func (h *HttpEndpoints) getResponses(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	pq, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination parameters"})
		return
	}

	sctx := search.SearchContext{}
	if tzName := c.DefaultQuery("tz", ""); tzName != "" {
		tz, err := time.LoadLocation(tzName)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
			return
		}
		sctx.Timezone = tz
	}

	filter, err := search.Compile(c.DefaultQuery("q", ""), token.MissionID, h.missionScope(token), sctx)
	if err != nil {
		var parseErr *search.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
			return
		}
		slog.Error("error compiling search query", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error compiling search query"})
		return
	}

	responses, paginationInfo, err := h.responseDBConn.FindResponses(token.InstanceID, *filter, pq.Page, pq.Limit)
	if err != nil {
		slog.Error("error fetching responses", slog.String("instanceID", token.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching responses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responses":  responses,
		"pagination": paginationInfo,
	})
}
