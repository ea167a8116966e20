package handlers

import (
	"net/http"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"

	"github.com/gin-gonic/gin"
)

// HealthHandler состояние внешних зависимостей
type HealthHandler struct {
	guards []*upstream.Guard
}

// NewHealthHandler создает обработчик health check
func NewHealthHandler(guards ...*upstream.Guard) *HealthHandler {
	return &HealthHandler{guards: guards}
}

// Health GET /health. Открытый circuit breaker переводит сервис в degraded,
// но ответ остается 200: форма и PDF работают без внешних сервисов.
func (h *HealthHandler) Health(c *gin.Context) {
	breakers := gin.H{}
	status := "healthy"
	for _, g := range h.guards {
		if g == nil {
			continue
		}
		healthy := g.IsHealthy()
		if !healthy {
			status = "degraded"
		}
		breakers[g.Service()] = gin.H{
			"status": healthy,
			"state":  g.State().String(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"details": gin.H{
			"circuit_breakers": breakers,
		},
	})
}
