package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
)

func IsCoordinator() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the validated token from the context
		tokenValue, ok := c.Get("validatedToken")
		if !ok {
			slog.Warn("IsCoordinator: validatedToken not found in context")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validatedToken not found in context"})
			return
		}
		parsedToken := tokenValue.(*jwthandling.CollectionUserClaims)

		if !parsedToken.IsCoordinator() {
			slog.Warn("IsCoordinator Middleware: non coordinator tried to access coordinator endpoint", slog.String("instanceID", parsedToken.InstanceID), slog.String("userID", parsedToken.ID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized access to coordinator endpoint"})
			return
		}
	}
}
