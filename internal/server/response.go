package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/authn"
)

const (
	errCodeUnauthorized = "UNAUTHORIZED"
	errCodeBadRequest   = "BAD_REQUEST"
	errCodeConflict     = "CONFLICT"
	errCodeInternal     = "INTERNAL"
)

func respondOK(c *gin.Context, data gin.H) {
	out := gin.H{"success": true}
	for k, v := range data {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, gin.H{"success": false, "error": message, "error_code": code})
}

// respondAuthError maps any error from the auth core to a response. Policy
// violations become a uniform 401; the reason is logged, never sent to the
// client. Everything else is a 500.
func respondAuthError(c *gin.Context, err error) {
	if authn.IsUnauthorized(err) {
		log.Printf("auth: request rejected: %s (path=%s ip=%s)", authn.ReasonOf(err), c.FullPath(), c.ClientIP())
		respondError(c, http.StatusUnauthorized, "unauthorized", errCodeUnauthorized)
		return
	}
	log.Printf("auth: internal error: %v (path=%s)", err, c.FullPath())
	respondError(c, http.StatusInternalServerError, "internal error", errCodeInternal)
}
