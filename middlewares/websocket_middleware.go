package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/utils"
)

const CtxTableID = "table_id"

// WebSocketAuthMiddleware -> token opsional di query. Tanpa token, koneksi dianggap
// customer anonim; token yang ada tapi tidak valid ditolak dengan 401.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tableID := strings.TrimSpace(c.Query("table_id")); tableID != "" {
			c.Set(CtxTableID, tableID)
		}

		token := strings.TrimPrefix(c.Query("token"), "Bearer ")
		if token == "" {
			c.Next()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.InfoLogger.WithField("ip", c.ClientIP()).WithError(err).Warn("Rejected websocket token")
			c.AbortWithStatus(401)
			return
		}

		c.Set(CtxRole, claims.Role)
		c.Set(CtxUserID, claims.UserID)
		c.Next()
	}
}
