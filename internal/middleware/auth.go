package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
	"github.com/learnhub/learnhub-api/pkg/response"
)

// ClaimsKey is the gin context key holding the authenticated claims.
const ClaimsKey = "auth_claims"

// tokenValidator verifies access tokens.
type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Authenticate parses the bearer token and stores the claims in the
// request context.
func Authenticate(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRoles rejects requests whose session role is not in the
// allowed set. The acting role decides: an instructor browsing as a
// student is a student here.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !allowed[claims.ActingRole] {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFrom extracts the authenticated claims, nil when absent.
func ClaimsFrom(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
