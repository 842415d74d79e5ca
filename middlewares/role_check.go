package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/utils"
)

// RequireRole must run after an auth middleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			utils.RespondAbort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		utils.RespondAbort(c, http.StatusForbidden, role+" access not allowed")
	}
}
