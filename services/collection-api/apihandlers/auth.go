package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/aaarash/nemo/pkg/apihelpers/middlewares"
	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
)

func (h *HttpEndpoints) AddAuthAPI(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.Use(mw.CollectionAuthMiddleware(h.tokenSignKey, h.allowedInstanceIDs))
	{
		auth.GET("/renew-token", h.getRenewToken)
	}
}

// getRenewToken issues a fresh token carrying the caller's current claims.
// The presented token stays valid until its own expiry; revocation is not
// supported.
func (h *HttpEndpoints) getRenewToken(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	newToken, err := jwthandling.GenerateNewCollectionUserToken(
		h.tokenExpiresIn,
		token.ID,
		token.InstanceID,
		token.MissionID,
		token.Role,
		token.Payload,
		h.tokenSignKey,
	)
	if err != nil {
		slog.Error("error generating token", slog.String("userID", token.ID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error generating token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": newToken,
		"expiresAt":   time.Now().Add(h.tokenExpiresIn).Unix(),
	})
}
