package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/utils"
)

// AuthMiddleware 诊断接口JWT认证中间件
//
// jwt 为 nil 时不做认证（诊断接口只监听本机时使用）。
type AuthMiddleware struct {
	jwt *utils.JWTManager
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwt *utils.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Enabled 是否启用认证
func (m *AuthMiddleware) Enabled() bool {
	return m.jwt != nil
}

// RequireScope 需要指定权限的中间件
func (m *AuthMiddleware) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.jwt == nil {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			abort(c, errors.New(errors.ErrAuthentication, "缺少认证令牌"))
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			code := errors.ErrTokenInvalid
			if err == utils.ErrExpiredToken {
				code = errors.ErrTokenExpired
			}
			abort(c, errors.Wrap(err, code))
			return
		}

		if !claims.HasScope(scope) {
			abort(c, errors.Newf(errors.ErrAuthorization, "需要权限 %s", scope))
			return
		}

		c.Set("operator", claims.Operator)
		c.Set("scope", claims.Scope)
		c.Next()
	}
}

func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus(), errors.NewErrorResponse(err))
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	// 1. Authorization Header (Bearer Token)
	bearerToken := c.GetHeader("Authorization")
	if bearerToken != "" {
		parts := strings.Split(bearerToken, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// 2. X-Access-Token Header
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	// 3. Query参数（浏览器WebSocket无法设置Header）
	if token := c.Query("token"); token != "" {
		return token
	}

	return ""
}

// GetOperator 从上下文获取操作员
func GetOperator(c *gin.Context) (string, bool) {
	if operator, exists := c.Get("operator"); exists {
		if name, ok := operator.(string); ok {
			return name, true
		}
	}
	return "", false
}
