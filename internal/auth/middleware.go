package auth

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/bloomi-app/bloomi-backend/internal/api/http/response"
	"github.com/bloomi-app/bloomi-backend/internal/logger"
)

const codeUnauthorized = "UNAUTHORIZED"

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserEnsurer creates the account row for a user seen for the first time.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, id string) error
}

// FirebaseAuthMiddleware validates Firebase ID tokens and makes sure the
// account exists before the request reaches a handler.
func FirebaseAuthMiddleware(verifier TokenVerifier, users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, codeUnauthorized, "missing authorization token", "")
			return
		}

		decodedToken, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			logger.New(c.Request.Context()).LogWarnf("auth", "invalid token: %v", err)
			response.Error(c, http.StatusUnauthorized, codeUnauthorized, "invalid token", "")
			return
		}

		c.Set(CtxFirebaseUID, decodedToken.UID)
		if email, ok := decodedToken.Claims["email"].(string); ok {
			c.Set(CtxEmail, email)
		}

		setUser(c, users, decodedToken.UID)
	}
}

// OptionalUser takes the user id from X-User-Id without verifying anything.
// Use this ONLY for development/testing.
func OptionalUser(users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			response.Error(c, http.StatusUnauthorized, codeUnauthorized, "missing X-User-Id header", "")
			return
		}
		setUser(c, users, uid)
	}
}

func setUser(c *gin.Context, users UserEnsurer, uid string) {
	if users != nil {
		if err := users.EnsureUser(c.Request.Context(), uid); err != nil {
			logger.New(c.Request.Context()).LogError("ensure_user", err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", "")
			return
		}
	}
	c.Set(CtxUserID, uid)
	c.Next()
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
