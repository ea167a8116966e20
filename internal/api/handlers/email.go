package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/email"
	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"

	"github.com/gin-gonic/gin"
)

// EmailHandler отправка обращения по почте
type EmailHandler struct {
	sessions *SessionHandler
	pipeline *email.Pipeline
	messages *config.Messages
	stats    *statistics.Statistics
}

// NewEmailHandler создает обработчик отправки
func NewEmailHandler(sessions *SessionHandler, pipeline *email.Pipeline, messages *config.Messages, stats *statistics.Statistics) *EmailHandler {
	return &EmailHandler{sessions: sessions, pipeline: pipeline, messages: messages, stats: stats}
}

// Submit POST /api/v1/sessions/:id/reports/email: JSON или multipart с необязательным полем photo.
// Без photo используется первая выбранная в сессии фотография.
// После успешной отправки медиа и местоположение сессии сбрасываются.
func (h *EmailHandler) Submit(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}

	snap, photo, err := bindSubmission(c)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}
	if photo == nil {
		photo = s.Photo()
	}

	msgs := h.messages.Email
	trigger := s.Triggers.Email
	if err := trigger.Begin(msgs.BusyLabel); err != nil {
		respondError(c, err, "")
		return
	}
	defer trigger.Release()

	s.SetEmailStatus(msgs.Sending, false, false)

	start := time.Now()
	res, err := h.pipeline.Submit(c.Request.Context(), s.Fill(snap), photo)
	if err != nil {
		trigger.Fail()

		var verr *email.ValidationError
		message := msgs.Error
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			message = verr.Fields[0].Message
		} else {
			h.track(start, false)
		}
		s.SetEmailStatus(message, true, false)
		respondError(c, err, message)
		return
	}
	h.track(start, true)

	trigger.Succeed("")
	// После отправки форма очищается, строка статуса остается
	s.Reset()
	s.SetEmailStatus(res.Message, false, true)
	c.JSON(http.StatusOK, res)
}

func (h *EmailHandler) track(start time.Time, success bool) {
	if h.stats == nil {
		return
	}
	_ = h.stats.TrackReport(statistics.Event{
		Kind:     statistics.KindEmail,
		Duration: time.Since(start),
		Success:  success,
	})
}

// bindSubmission читает поля формы и фото из JSON или multipart
func bindSubmission(c *gin.Context) (form.Snapshot, *media.File, error) {
	var snap form.Snapshot
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&snap); err != nil {
			return snap, nil, err
		}
		return snap, nil, nil
	}

	if err := c.ShouldBind(&snap); err != nil {
		return snap, nil, err
	}

	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return snap, nil, nil
	}
	if err != nil {
		return snap, nil, err
	}

	f, err := readFile(fh, time.Time{})
	if err != nil {
		return snap, nil, err
	}
	return snap, &f, nil
}
