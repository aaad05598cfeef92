package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/internal/model"
	"github.com/d60-Lab/classmate/pkg/logger"
	"github.com/d60-Lab/classmate/pkg/response"
	"github.com/d60-Lab/classmate/pkg/token"
)

const (
	ctxViewerID = "viewer_id"
	ctxRole     = "viewer_role"
)

// Auth 解析 Bearer token 并写入访问者身份。
// 缺失或无效的 token 不拦截请求，访问者按匿名处理。
func Auth(tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			// 浏览器 websocket 无法设置请求头
			raw = c.Query("access_token")
		}
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tm.Verify(raw)
		if err != nil {
			logger.Debug("ignore invalid token", zap.String("path", c.FullPath()), zap.Error(err))
			c.Next()
			return
		}
		c.Set(ctxViewerID, claims.Subject)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// ViewerID 返回当前访问者 ID，匿名时为空串
func ViewerID(c *gin.Context) string { return c.GetString(ctxViewerID) }

func Role(c *gin.Context) string { return c.GetString(ctxRole) }

// RequireViewer 需要登录的写操作使用
func RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ViewerID(c) == "" {
			response.Unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireAdmin 审核接口仅限管理员
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ViewerID(c) == "" {
			response.Unauthorized(c, "authentication required")
			return
		}
		if Role(c) != model.RoleAdmin {
			response.Forbidden(c, "admin only")
			return
		}
		c.Next()
	}
}
