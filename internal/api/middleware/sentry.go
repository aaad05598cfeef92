package middleware

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryErrors 把 5xx 响应中 handler 记录的错误上报到请求所属的 hub
func SentryErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < 500 || len(c.Errors) == 0 {
			return
		}
		hub := sentrygin.GetHubFromContext(c)
		if hub == nil {
			return
		}
		for _, e := range c.Errors {
			hub.CaptureException(e.Err)
		}
	}
}
