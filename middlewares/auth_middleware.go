package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/utils"
)

// Key context yang diisi middleware auth
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid token format"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.InfoLogger.WithFields(logrus.Fields{
				"path":  c.Request.URL.Path,
				"ip":    c.ClientIP(),
				"error": err.Error(),
			}).Warn("Rejected token")
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}
