package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/utils"
)

type JWTMiddleware struct {
	allowQuery bool
}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

// NewStreamJWTMiddleware also accepts the token from the "token" query
// parameter, since EventSource cannot set headers.
func NewStreamJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{allowQuery: true}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.token(c)
		if !ok {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (m *JWTMiddleware) token(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if m.allowQuery {
		if t := c.Query("token"); t != "" {
			return t, true
		}
	}
	return "", false
}

// UserID returns the authenticated user id, or 0 outside JWTMiddleware.
func UserID(c *gin.Context) int {
	return c.GetInt("user_id")
}
