package session

import "time"

const (
	// PDFStatusVisible сколько показывается статус PDF
	PDFStatusVisible = 3200 * time.Millisecond
	// EmailSuccessVisible сколько показывается сообщение об успешной отправке
	EmailSuccessVisible = 5 * time.Second
)

// Feedback временное сообщение. Нулевой until означает "до следующего изменения".
type Feedback struct {
	Message string
	IsError bool
	until   time.Time
}

// FeedbackView видимое состояние сообщения
type FeedbackView struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
	Visible bool   `json:"visible"`
}

func newFeedback(msg string, isError bool, now time.Time, visible time.Duration) Feedback {
	f := Feedback{Message: msg, IsError: isError}
	if visible > 0 {
		f.until = now.Add(visible)
	}
	return f
}

func (f Feedback) view(now time.Time) FeedbackView {
	if f.Message == "" || (!f.until.IsZero() && !now.Before(f.until)) {
		return FeedbackView{}
	}
	return FeedbackView{Message: f.Message, IsError: f.IsError, Visible: true}
}
