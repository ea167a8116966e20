package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Diego-Cesare/fala-icara/internal/domain/email"
	"github.com/Diego-Cesare/fala-icara/internal/domain/session"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/circuitbreaker"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/logger"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrInvalidRequest некорректное тело или параметры запроса
var ErrInvalidRequest = errors.New("invalid request")

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error   string             `json:"error"`
	Message string             `json:"message,omitempty"`
	Fields  []email.FieldError `json:"fields,omitempty"`
}

// statusFor переводит ошибку домена в HTTP статус
func statusFor(err error) int {
	var verr *email.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, email.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), retry.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, email.ErrSendFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError логирует ошибку и отвечает JSON с коротким сообщением для пользователя
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	tracing.RecordError(c.Request.Context(), err)
	_ = c.Error(err)

	resp := ErrorResponse{Error: err.Error(), Message: message}
	var verr *email.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
		if resp.Message == "" && len(verr.Fields) > 0 {
			resp.Message = verr.Fields[0].Message
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, resp)
}
