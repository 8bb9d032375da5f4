package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loginify/internal/pkg/jwtutil"
	"loginify/internal/transport/http/response"
)

const (
	ContextUsernameKey = "username"
	ContextEmailKey    = "email"
)

// AuthJWT requires a bearer token. When ownerParam is set, the token's email
// claim must equal that path parameter, restricting callers to their own
// record.
func AuthJWT(secret, ownerParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if ownerParam != "" && !strings.EqualFold(strings.TrimSpace(c.Param(ownerParam)), claims.Email) {
			response.Error(c, http.StatusForbidden, "token does not grant access to this user")
			c.Abort()
			return
		}

		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextEmailKey, claims.Email)
		c.Next()
	}
}
