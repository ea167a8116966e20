package middleware

import (
	"strings"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"

	"github.com/gin-gonic/gin"
)

// StatisticsMiddleware учитывает запросы к /api/v1, кроме самой статистики
func StatisticsMiddleware(stats *statistics.Statistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !strings.HasPrefix(path, "/api/v1/") || strings.HasPrefix(path, "/api/v1/statistics") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = path
		}
		status := c.Writer.Status()
		// ошибка записи в базу уже залогирована
		_ = stats.TrackRequest(route, c.Request.Method, time.Since(start), status >= 200 && status < 400)
	}
}
