package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/utils"
)

const (
	CtxSubjectID = "subject_id"
	CtxRole      = "role"
)

// AuthMiddleware accepts "Authorization: Bearer <jwt>".
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondAbort(c, http.StatusUnauthorized, "Authorization header missing")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			utils.RespondAbort(c, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		authenticate(c, secret, tokenString)
	}
}

// WebSocketAuthMiddleware reads the token from ?token= since browsers
// cannot set headers on a WebSocket handshake.
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondAbort(c, http.StatusUnauthorized, "token missing")
			return
		}
		authenticate(c, secret, token)
	}
}

func authenticate(c *gin.Context, secret []byte, tokenString string) {
	claims, err := utils.ParseToken(secret, tokenString)
	if err != nil {
		utils.RespondAbort(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	c.Set(CtxSubjectID, claims.SubjectID)
	c.Set(CtxRole, claims.Role)
	c.Next()
}
