package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID      = "user_id"
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
)

// UserID returns the authenticated user id set by the auth middleware
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}
