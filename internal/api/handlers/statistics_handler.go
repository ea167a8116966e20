package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"

	"github.com/gin-gonic/gin"
)

// StatisticsHandler обработчик для статистики
type StatisticsHandler struct {
	stats *statistics.Statistics
}

// NewStatisticsHandler создает новый обработчик статистики
func NewStatisticsHandler(stats *statistics.Statistics) *StatisticsHandler {
	if stats == nil {
		stats = statistics.GetInstance()
	}
	return &StatisticsHandler{stats: stats}
}

// GetStatistics GET /api/v1/statistics?period=24h. Без period: за все время.
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	var since time.Time
	if period := c.Query("period"); period != "" {
		d, err := time.ParseDuration(period)
		if err != nil || d <= 0 {
			respondError(c, fmt.Errorf("%w: invalid period %q", ErrInvalidRequest, period), "")
			return
		}
		since = time.Now().Add(-d)
	}

	c.JSON(http.StatusOK, h.stats.Summary(c.Request.Context(), since))
}
