package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/services"
)

// Authenticator issues and revokes sessions.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Logout(ctx context.Context, claims *services.Claims) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

type AuthHandler struct {
	auth          Authenticator
	secureCookies bool
	logger        *logrus.Entry
}

// NewAuthHandler sets the Secure flag on session cookies when secureCookies is true.
func NewAuthHandler(auth Authenticator, secureCookies bool, logger *logrus.Logger) *AuthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthHandler{
		auth:          auth,
		secureCookies: secureCookies,
		logger:        logger.WithField("component", "auth-handler"),
	}
}

func (h *AuthHandler) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookies, true)
}

// Login exchanges credentials for a session token
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
			return
		}
		h.logger.WithError(err).Error("Login failed")
		respondError(c, http.StatusInternalServerError, "LOGIN_FAILED", "Login could not be completed")
		return
	}

	maxAge := int(time.Until(time.Unix(resp.ExpiresAt, 0)).Seconds())
	h.setSession(c, resp.Token, maxAge)
	respondOK(c, resp)
}

// Logout revokes the current token and clears the session cookie
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication is required")
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		h.logger.WithError(err).Warn("Token revocation failed")
	}
	h.setSession(c, "", -1)
	respondMessage(c, http.StatusOK, "Logged out", nil)
}

// Me describes the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication is required")
		return
	}
	respondOK(c, gin.H{
		"userId":   claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

// ChangePassword replaces the caller's password
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor := middleware.ActorID(c)
	if actor == nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication is required")
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), *actor, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		respondMessage(c, http.StatusOK, "Password changed", nil)
	case errors.Is(err, services.ErrWrongPassword):
		respondError(c, http.StatusBadRequest, "WRONG_PASSWORD", "Current password is incorrect")
	case errors.Is(err, services.ErrWeakPassword):
		respondError(c, http.StatusBadRequest, "WEAK_PASSWORD", err.Error())
	default:
		h.logger.WithError(err).Error("Password change failed")
		respondError(c, http.StatusInternalServerError, "PASSWORD_CHANGE_FAILED", "Password could not be changed")
	}
}
