package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/utils"
)

// RequireRoles harus dipasang setelah AuthMiddleware
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}

		for _, r := range roles {
			if strings.EqualFold(r, role) {
				c.Next()
				return
			}
		}

		utils.ErrorLogger.WithField("user_id", c.GetString(CtxUserID)).
			WithField("role", role).
			WithField("path", c.Request.URL.Path).
			Warn("Role not allowed")
		utils.RespondError(c, http.StatusForbidden, errors.New("staff access required"))
		c.Abort()
	}
}
