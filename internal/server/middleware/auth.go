package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pomelo/internal/model"
	"pomelo/internal/pkg/ctxutil"
	"pomelo/internal/pkg/jwt"
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入 user_id 到 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtUtil)
		if !ok {
			c.JSON(model.NewErrorResponse(model.NewAuthRequired()))
			c.Abort()
			return
		}

		injectIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 可选认证
// 没有 Authorization header 时匿名放行；带了无效 token 仍然拒绝，
// 避免调用方误以为自己带着身份在请求
func OptionalAuth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		claims, ok := parseBearer(c, jwtUtil)
		if !ok {
			c.JSON(model.NewErrorResponse(model.NewAuthRequired()))
			c.Abort()
			return
		}

		injectIdentity(c, claims)
		c.Next()
	}
}

// RequireRole 角色校验，必须在 Auth 之后使用
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, _ := ctxutil.GetRole(c.Request.Context())
		if got != role {
			c.JSON(http.StatusForbidden, model.ErrorResponse{
				Error: model.ErrorInfo{
					Code:    model.CodeAuthRequired,
					Message: "insufficient permissions",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtUtil *jwt.JWT) (*jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	// Bearer {token}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := jwtUtil.ValidateToken(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func injectIdentity(c *gin.Context, claims *jwt.Claims) {
	ctx := ctxutil.WithUserID(c.Request.Context(), claims.UserID)
	ctx = ctxutil.WithRole(ctx, claims.Role)
	c.Request = c.Request.WithContext(ctx)
}
