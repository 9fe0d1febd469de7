package server

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/security"
	sessiondomain "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
	userdomain "github.com/EmreUYGUNX/lumi-platform-sub005/internal/user/domain"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", errCodeBadRequest)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if err := validateEmail(email); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), errCodeBadRequest)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), errCodeBadRequest)
		return
	}
	ctx := c.Request.Context()
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	if existing != nil {
		respondError(c, http.StatusConflict, "email already registered", errCodeConflict)
		return
	}
	hash, err := s.hasher.Hash([]byte(req.Password))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user_id": user.ID})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", errCodeBadRequest)
		return
	}
	ctx := c.Request.Context()
	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	if user == nil || !user.Active() || s.hasher.Compare(user.PasswordHash, []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials", errCodeUnauthorized)
		return
	}
	secret, err := security.NewRefreshSecret()
	if err != nil {
		respondAuthError(c, err)
		return
	}
	sess, err := s.sessions.Create(ctx, user.ID, secret, deviceFromRequest(c), "")
	if err != nil {
		respondAuthError(c, err)
		return
	}
	accessToken, accessClaims, err := s.tokens.IssueAccessToken(ctx, user, sess)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	refreshToken, _, err := s.tokens.IssueRefreshToken(user, sess, secret)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	respondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_at":    accessClaims.ExpiresAt.Time,
		"session_id":    sess.ID,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", errCodeBadRequest)
		return
	}
	pair, err := s.tokens.RotateRefreshToken(c.Request.Context(), req.RefreshToken, deviceFromRequest(c))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	respondOK(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExpiresAt,
		"session_id":    pair.SessionID,
	})
}

// handleLogout revokes the session behind the supplied refresh token. Invalid
// or missing tokens are a successful no-op so clients can always clear state.
func (s *Server) handleLogout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken != "" {
		if claims, err := s.signer.VerifyRefresh(req.RefreshToken); err == nil {
			if err := s.tokens.RevokeToken(c.Request.Context(), claims.SessionID, sessionservice.ReasonLogout); err != nil {
				respondAuthError(c, err)
				return
			}
		}
	}
	respondOK(c, nil)
}

func (s *Server) handleLogoutAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "unauthorized", errCodeUnauthorized)
		return
	}
	n, err := s.sessions.RevokeAllForUser(c.Request.Context(), claims.Subject, sessionservice.ReasonLogoutAll)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	respondOK(c, gin.H{"revoked": n})
}

func (s *Server) handleMe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "unauthorized", errCodeUnauthorized)
		return
	}
	respondOK(c, gin.H{
		"user_id":     claims.Subject,
		"email":       claims.Email,
		"role_ids":    claims.RoleIDs,
		"permissions": claims.Permissions,
		"session_id":  claims.SessionID,
	})
}

func claimsFromContext(c *gin.Context) *security.AccessClaims {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.AccessClaims)
	return claims
}

func deviceFromRequest(c *gin.Context) *sessiondomain.DeviceMetadata {
	return &sessiondomain.DeviceMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Accept:    c.GetHeader("Accept"),
	}
}

func validateEmail(email string) error {
	if email == "" {
		return errEmailRequired
	}
	if !emailRe.MatchString(email) {
		return errEmailInvalid
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
