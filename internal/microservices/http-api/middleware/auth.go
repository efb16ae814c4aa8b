package middleware

import (
	"net/http"
	"strings"

	"prompterest/internal/microservices/http-api/service"
	"prompterest/internal/shared"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenValidator is the part of service.AuthService the middleware needs
type TokenValidator interface {
	ValidateToken(tokenString string) (*shared.Identity, error)
}

var _ TokenValidator = service.AuthService(nil)

// Identify resolves the optional bearer token into an identity on the context.
// Requests without a usable token continue as anonymous; routes that need an
// identity add RequireIdentity, and services check again on their own.
func Identify(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		identity, err := validator.ValidateToken(tokenString)
		if err == nil && identity != nil {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

// RequireIdentity answers 401 for anonymous callers
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller set by Identify, nil for anonymous requests
func CurrentIdentity(c *gin.Context) *shared.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, _ := v.(*shared.Identity)
	return identity
}

// bearerToken extracts <token> from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
