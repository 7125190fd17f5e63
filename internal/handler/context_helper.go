package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edustack/school-portal-api/internal/middleware"
	"github.com/edustack/school-portal-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil on routes
// reached without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
