package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxClaimsKey = "authClaims"
	bearerPrefix = "bearer "
)

// requireAuth validates the Bearer access token and puts its claims in the
// gin context. The token service re-validates the underlying session, so a
// revoked session rejects an otherwise time-valid token.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := parseBearer(c.GetHeader("Authorization"))
		if token == "" {
			respondError(c, 401, "unauthorized", errCodeUnauthorized)
			c.Abort()
			return
		}
		claims, err := s.tokens.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			respondAuthError(c, err)
			c.Abort()
			return
		}
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

func parseBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
