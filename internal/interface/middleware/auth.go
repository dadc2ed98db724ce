package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/galactic-postbox/pkg/helpers"
	"github.com/oksasatya/galactic-postbox/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxClaimsKey = "claims"
)

// TokenVerifier validates a bearer token. *application.AuthService implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*helpers.Claims, error)
}

// Auth requires an "Authorization: Bearer <token>" header and sets userID
// and claims in the Gin context on success.
func Auth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		claims, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Claims returns the verified token claims set by Auth.
func Claims(c *gin.Context) *helpers.Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*helpers.Claims)
	return claims
}
