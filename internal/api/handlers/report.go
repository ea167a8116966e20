package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/report"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/logger"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Заголовки ответа с PDF
const (
	HeaderReportStatus   = "X-Report-Status"
	HeaderReportOutcome  = "X-Report-Outcome"
	HeaderReportIsError  = "X-Report-Error"
	HeaderShareSupported = "X-Share-Supported"
)

// clientShareSheet окно "поделиться" на устройстве клиента. Файл уходит в ответе,
// окончательный результат клиент сообщает через share-outcome.
type clientShareSheet struct {
	supported bool
}

func (s clientShareSheet) CanShare(report.ShareRequest) bool { return s.supported }

func (s clientShareSheet) Share(context.Context, report.ShareRequest) error { return nil }

// ShareOutcomeRequest результат navigator.share на клиенте; пустой error означает успех
type ShareOutcomeRequest struct {
	Error string `json:"error"`
}

// ReportHandler генерация PDF
type ReportHandler struct {
	sessions  *SessionHandler
	assembler *report.Assembler
	messages  *config.Messages
	stats     *statistics.Statistics
}

// NewReportHandler создает обработчик PDF
func NewReportHandler(sessions *SessionHandler, assembler *report.Assembler, messages *config.Messages, stats *statistics.Statistics) *ReportHandler {
	return &ReportHandler{sessions: sessions, assembler: assembler, messages: messages, stats: stats}
}

// PDF POST /api/v1/sessions/:id/reports/pdf?delivery=download|share
func (h *ReportHandler) PDF(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}

	sharing := c.DefaultQuery("delivery", "download") == "share"
	trigger := s.Triggers.Download
	if sharing {
		trigger = s.Triggers.Share
	}

	var snap form.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}

	msgs := h.messages.PDF
	if err := trigger.Begin(msgs.BusyLabel); err != nil {
		respondError(c, err, "")
		return
	}
	defer trigger.Release()

	start := time.Now()
	doc, err := h.assembler.Generate(c.Request.Context(), s.Fill(snap.Trimmed()), s.Entries())
	if err != nil {
		delivery := report.GenerationFailed(msgs, sharing)
		trigger.Fail()
		s.SetPDFStatus(delivery.Message, true)
		h.track(start, false, 0)
		respondError(c, err, delivery.Message)
		return
	}
	h.track(start, true, int64(doc.Size()))

	delivery := report.Downloaded(msgs)
	if sharing {
		sheet := clientShareSheet{supported: c.GetHeader(HeaderShareSupported) == "true"}
		delivery = report.Deliver(c.Request.Context(), doc, sheet, msgs)
	}
	trigger.Succeed("")
	s.SetPDFStatus(delivery.Message, delivery.IsError)

	logger.Info("report pdf generated",
		zap.String("session_id", s.ID),
		zap.String("outcome", string(delivery.Outcome)),
		zap.Int("size", doc.Size()),
		zap.Int("pages", doc.Pages()),
	)

	disposition := "attachment"
	if delivery.Outcome == report.OutcomeShared {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName()))
	c.Header(HeaderReportStatus, delivery.Message)
	c.Header(HeaderReportOutcome, string(delivery.Outcome))
	c.Header(HeaderReportIsError, strconv.FormatBool(delivery.IsError))
	c.Data(http.StatusOK, report.ContentType, doc.Bytes())
}

// ShareOutcome POST /api/v1/sessions/:id/reports/share-outcome
func (h *ReportHandler) ShareOutcome(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}

	var req ShareOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}

	delivery := report.ShareResult(shareError(req.Error), h.messages.PDF)
	if delivery.Outcome == report.OutcomeFailed {
		logger.Warn("client share failed", zap.String("session_id", s.ID), zap.String("error", req.Error))
	}
	s.SetPDFStatus(delivery.Message, delivery.IsError)
	c.JSON(http.StatusOK, delivery)
}

// shareError переводит имя DOMException из navigator.share в ошибку доставки
func shareError(name string) error {
	switch name {
	case "":
		return nil
	case "AbortError":
		return report.ErrShareCancelled
	default:
		return fmt.Errorf("share failed: %s", name)
	}
}

func (h *ReportHandler) track(start time.Time, success bool, size int64) {
	if h.stats == nil {
		return
	}
	_ = h.stats.TrackReport(statistics.Event{
		Kind:      statistics.KindPDF,
		Duration:  time.Since(start),
		Success:   success,
		SizeBytes: size,
	})
}
