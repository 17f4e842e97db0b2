package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/FeedHub/internal/logx"
)

// RequestLogger 替代 gin 默认的文本日志，把带请求字段的 logger 放进 context
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := logx.Logger.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(logx.ContextWithLogger(c.Request.Context(), l))

		c.Next()

		l.Infow("request", "status", c.Writer.Status(), "latency", time.Since(start))
	}
}
