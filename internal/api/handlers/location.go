package handlers

import (
	"fmt"
	"net/http"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/location"

	"github.com/gin-gonic/gin"
)

// LocationRequest что устройство вернуло на каждую попытку геолокации.
// Одиночная попытка может быть передана полями верхнего уровня.
type LocationRequest struct {
	Supported *bool             `json:"supported"`
	Attempts  []location.Report `json:"attempts"`
	location.Report
}

// reports попытки в порядке выполнения
func (r LocationRequest) reports() []location.Report {
	if len(r.Attempts) > 0 {
		return r.Attempts
	}
	if r.Latitude != nil || r.ErrorCode != 0 {
		return []location.Report{r.Report}
	}
	return nil
}

// LocationResponse поля формы и статус после захвата
type LocationResponse struct {
	location.Fields
	Status   string            `json:"status"`
	Kind     location.Kind     `json:"kind"`
	Skipped  bool              `json:"skipped"`
	Attempts int               `json:"attempts"`
	Progress []location.Status `json:"progress,omitempty"`
}

// LocationHandler захват локации
type LocationHandler struct {
	sessions *SessionHandler
	service  *location.Service
	messages *config.Messages
}

// NewLocationHandler создает обработчик локации
func NewLocationHandler(sessions *SessionHandler, service *location.Service, messages *config.Messages) *LocationHandler {
	return &LocationHandler{sessions: sessions, service: service, messages: messages}
}

// Capture POST /api/v1/sessions/:id/location
func (h *LocationHandler) Capture(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}

	trigger := s.Triggers.Locate
	if err := trigger.Begin(h.messages.Location.LocateLabel); err != nil {
		respondError(c, err, "")
		return
	}
	defer trigger.Release()

	var src location.PositionSource
	if reports := req.reports(); (req.Supported == nil || *req.Supported) && len(reports) > 0 {
		src = location.NewReportedSource(reports...)
	}

	current, _ := s.Location()
	res, err := h.service.Capture(c.Request.Context(), src, s.Debouncer(), current)
	if err != nil {
		trigger.Fail()
		respondError(c, err, h.messages.Location.Errors.Default)
		return
	}
	s.ApplyLocation(res)

	fields, status := s.Location()
	c.JSON(http.StatusOK, LocationResponse{
		Fields:   fields,
		Status:   status.Message,
		Kind:     status.Kind,
		Skipped:  res.Skipped,
		Attempts: res.Attempts,
		Progress: res.Progress,
	})
}
