package report

import (
	"context"
	"errors"

	"github.com/Diego-Cesare/fala-icara/internal/config"
)

// Outcome результат доставки отчета
type Outcome string

const (
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeShared     Outcome = "shared"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeFailed     Outcome = "failed"
)

var (
	// ErrShareCancelled пользователь закрыл окно "поделиться"; не считается ошибкой
	ErrShareCancelled = errors.New("share cancelled")
	// ErrShareUnavailable устройство не умеет делиться файлами
	ErrShareUnavailable = errors.New("share unavailable")
)

// ShareRequest то, что передается системному окну "поделиться"
type ShareRequest struct {
	Title       string
	Text        string
	FileName    string
	ContentType string
	Data        []byte
}

// Sharer системное окно "поделиться"
type Sharer interface {
	CanShare(req ShareRequest) bool
	Share(ctx context.Context, req ShareRequest) error
}

// Delivery итог с сообщением для pdf-status
type Delivery struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
	IsError bool    `json:"is_error"`
}

// Downloaded успешная генерация для скачивания
func Downloaded(msgs config.PDFMessages) Delivery {
	return Delivery{Outcome: OutcomeDownloaded, Message: msgs.Downloaded}
}

// GenerationFailed отчет не удалось собрать
func GenerationFailed(msgs config.PDFMessages, sharing bool) Delivery {
	if sharing {
		return Delivery{Outcome: OutcomeFailed, Message: msgs.ShareFailed, IsError: true}
	}
	return Delivery{Outcome: OutcomeFailed, Message: msgs.DownloadFailed, IsError: true}
}

// NewShareRequest запрос на отправку документа
func NewShareRequest(doc *Document, msgs config.PDFMessages) ShareRequest {
	return ShareRequest{
		Title:       msgs.ShareTitle,
		Text:        msgs.ShareText,
		FileName:    doc.FileName(),
		ContentType: ContentType,
		Data:        doc.Bytes(),
	}
}

// Deliver делится документом, а если это невозможно, отдает его на скачивание
func Deliver(ctx context.Context, doc *Document, sharer Sharer, msgs config.PDFMessages) Delivery {
	req := NewShareRequest(doc, msgs)
	if sharer == nil || !sharer.CanShare(req) {
		return ShareResult(ErrShareUnavailable, msgs)
	}
	return ShareResult(sharer.Share(ctx, req), msgs)
}

// ShareResult переводит результат окна "поделиться" в Delivery
func ShareResult(err error, msgs config.PDFMessages) Delivery {
	switch {
	case err == nil:
		return Delivery{Outcome: OutcomeShared, Message: msgs.Shared}
	case errors.Is(err, ErrShareCancelled), errors.Is(err, context.Canceled):
		return Delivery{Outcome: OutcomeCancelled, Message: msgs.ShareCancelled}
	case errors.Is(err, ErrShareUnavailable):
		return Delivery{Outcome: OutcomeDownloaded, Message: msgs.ShareFallback, IsError: true}
	default:
		return Delivery{Outcome: OutcomeFailed, Message: msgs.ShareFailed, IsError: true}
	}
}
