package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/findoc_server/internal/pkg/jwt"
	"github.com/qs3c/findoc_server/internal/pkg/response"
)

const (
	UserRefKey = "userRef"
)

// Identity 可选认证：没有 Authorization 头时使用 defaultUserRef，
// 带了 Bearer token 就必须有效。secret 为空时不解析 token。
func Identity(jwtSecret, defaultUserRef string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || jwtSecret == "" {
			c.Set(UserRefKey, defaultUserRef)
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			c.Abort()
			return
		}

		c.Set(UserRefKey, claims.UserRef)
		c.Next()
	}
}

// GetUserRef 从上下文获取调用方标识
func GetUserRef(c *gin.Context) string {
	return c.GetString(UserRefKey)
}
