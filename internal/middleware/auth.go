package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"stock-service/internal/models"
	"stock-service/internal/services"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "stock_session"

const claimsKey = "claims"

// TokenValidator parses a session token.
type TokenValidator interface {
	ParseToken(ctx context.Context, token string) (*services.Claims, error)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

// JWTAuth requires a valid token from the Authorization header or the
// session cookie.
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				abortUnauthorized(c, "INVALID_TOKEN_FORMAT", "Authorization header must be in format: Bearer <token>")
				return
			}
			token = strings.TrimSpace(parts[1])
		} else if cookie, err := c.Cookie(SessionCookie); err == nil {
			token = cookie
		}
		if token == "" {
			abortUnauthorized(c, "MISSING_TOKEN", "Authentication is required")
			return
		}

		claims, err := validator.ParseToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrTokenRevoked) {
				abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "AUTH_UNAVAILABLE", Message: "Token could not be verified"},
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Set("user_id", claims.UserID)
		c.Set("user_role", string(claims.Role))
		c.Next()
	}
}

// RequireRole allows the listed roles. Admins always pass.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}

	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "NO_ROLES", Message: "User role not found"},
			})
			return
		}

		if claims.Role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INSUFFICIENT_PERMISSIONS",
				Message: "Required role: " + strings.Join(allowed, " or "),
			},
		})
	}
}

// GetClaims returns the authenticated claims, or nil outside JWTAuth.
func GetClaims(c *gin.Context) *services.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*services.Claims)
	return claims
}

// ActorID returns the authenticated user id for audit entries.
func ActorID(c *gin.Context) *uuid.UUID {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	id, err := claims.ActorID()
	if err != nil {
		return nil
	}
	return &id
}
