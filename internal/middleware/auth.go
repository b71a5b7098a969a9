package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"niplan/internal/utils"
)

// Context keys set by AuthMiddleware.
const (
	CtxAccountID = "account_id"
	CtxRole      = "role"
	CtxPhone     = "phone"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "invalid_token"})
}

// AuthMiddleware requires a valid access token and puts its claims in the context.
func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "Missing or invalid Authorization header")
			return
		}

		claims, err := tokens.ParseAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}
		id, err := claims.AccountID()
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(CtxAccountID, id)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxPhone, claims.Phone)
		c.Next()
	}
}

func AccountID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxAccountID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
