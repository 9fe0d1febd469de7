// Package server exposes the auth core over a small REST surface: register,
// login, refresh, logout, and the bearer middleware the rest of the platform
// mounts in front of protected routes.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/security"
	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
	tokenservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/token/service"
	userrepo "github.com/EmreUYGUNX/lumi-platform-sub005/internal/user/repository"
)

// Server wires the auth services into gin handlers.
type Server struct {
	engine   *gin.Engine
	sessions *sessionservice.Service
	tokens   *tokenservice.Service
	users    userrepo.Repository
	hasher   *security.Hasher
	signer   *security.TokenSigner
}

// New returns a Server with all routes registered. registry may be nil to
// skip the /metrics endpoint.
func New(
	sessions *sessionservice.Service,
	tokens *tokenservice.Service,
	users userrepo.Repository,
	hasher *security.Hasher,
	signer *security.TokenSigner,
	registry *prometheus.Registry,
) *Server {
	s := &Server{
		engine:   gin.New(),
		sessions: sessions,
		tokens:   tokens,
		users:    users,
		hasher:   hasher,
		signer:   signer,
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if registry != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	auth := s.engine.Group("/api/v1/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.POST("/refresh", s.handleRefresh)
		auth.POST("/logout", s.handleLogout)
		auth.POST("/logout-all", s.requireAuth(), s.handleLogoutAll)
		auth.GET("/me", s.requireAuth(), s.handleMe)
	}
	return s
}

// Handler returns the underlying http handler for serving or tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}
