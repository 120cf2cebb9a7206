package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/middleware"
	"github.com/campushub/ums-api/internal/models"
)

// currentClaims pulls the authenticated caller's JWT claims out of the
// gin context. Routes mounted without the JWT middleware get nil.
func currentClaims(c *gin.Context) *models.JWTClaims {
	value, _ := c.Get(middleware.ContextUserKey)
	if claims, ok := value.(*models.JWTClaims); ok {
		return claims
	}
	return nil
}
