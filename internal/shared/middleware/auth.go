package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// OrgIDKey is the context key for organization ID.
	OrgIDKey = "org_id"
	// EmailKey is the context key for email.
	EmailKey = "email"
	// RoleKey is the context key for the user's organization role.
	RoleKey = "role"
)

// IdentityClaims is the resolved identity attached to every authenticated
// request. Handlers never parse credentials themselves.
type IdentityClaims struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Email          string
	Role           string
}

// TokenValidator defines the interface for access token validation.
type TokenValidator interface {
	ValidateAccessToken(token string) (*IdentityClaims, error)
}

// RequireAuth returns a middleware that requires a valid access token.
// On success it sets user_id, org_id, email and role in the context.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authorization header required",
				},
			})
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(OrgIDKey, claims.OrganizationID)
		c.Set(EmailKey, claims.Email)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}

	return ""
}

// GetUserID returns the user ID from context. Returns uuid.Nil if not found.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// GetOrgID returns the organization ID from context. Returns uuid.Nil if not found.
func GetOrgID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(OrgIDKey); exists {
		if orgID, ok := val.(uuid.UUID); ok {
			return orgID
		}
	}
	return uuid.Nil
}

// GetEmail returns the email from context. Returns empty string if not found.
func GetEmail(c *gin.Context) string {
	if val, exists := c.Get(EmailKey); exists {
		if email, ok := val.(string); ok {
			return email
		}
	}
	return ""
}

// GetRole returns the organization role from context.
func GetRole(c *gin.Context) string {
	if val, exists := c.Get(RoleKey); exists {
		if role, ok := val.(string); ok {
			return role
		}
	}
	return ""
}
