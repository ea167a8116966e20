// Package session хранит состояние одной заполняемой формы: выбранные медиа,
// локацию, статусы и кнопки действий.
package session

import (
	"sync"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/email"
	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/location"
	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
)

// Triggers кнопки действий формы
type Triggers struct {
	Download *email.Trigger
	Share    *email.Trigger
	Email    *email.Trigger
	Locate   *email.Trigger
}

// Session состояние формы одного пользователя
type Session struct {
	ID        string
	CreatedAt time.Time
	Triggers  Triggers

	mu             sync.Mutex
	messages       *config.Messages
	previews       *media.PreviewStore
	selection      *media.Selection
	debouncer      *location.Debouncer
	location       location.Fields
	locationStatus location.Status
	pdfStatus      Feedback
	emailStatus    Feedback
	now            func() time.Time
}

// View состояние сессии для клиента
type View struct {
	ID             string                       `json:"id"`
	Media          media.Snapshot               `json:"media"`
	Location       location.Fields              `json:"location"`
	LocationStatus location.Status              `json:"location_status"`
	PDFStatus      FeedbackView                 `json:"pdf_status"`
	EmailStatus    FeedbackView                 `json:"email_status"`
	Triggers       map[string]email.TriggerView `json:"triggers"`
}

// New создает сессию с пустым выбором и статусом "Localização não capturada."
func New(id string, messages *config.Messages) *Session {
	if messages == nil {
		messages = config.DefaultMessages()
	}
	previews := media.NewPreviewStore()
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Triggers: Triggers{
			Download: email.NewTrigger(messages.PDF.DownloadLabel),
			Share:    email.NewTrigger(messages.PDF.ShareLabel),
			Email:    email.NewTrigger(messages.Email.SubmitLabel),
			Locate:   email.NewTrigger(messages.Location.LocateLabel),
		},
		messages:       messages,
		previews:       previews,
		selection:      media.NewSelection(previews),
		debouncer:      location.NewDebouncer(location.DebounceWindow),
		locationStatus: location.Status{Message: messages.Location.NotCaptured, Kind: location.KindDefault},
		now:            time.Now,
	}
}

// AddMedia добавляет файлы источника
func (s *Session) AddMedia(source media.Source, files []media.File) media.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Add(source, files)
}

// ReplaceMedia заменяет файлы источника целиком
func (s *Session) ReplaceMedia(source media.Source, files []media.File) media.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Replace(source, files)
}

// ClearMedia снимает выбор со всех файлов
func (s *Session) ClearMedia() media.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Clear()
}

// Media текущий снимок выбора
func (s *Session) Media() media.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Snapshot()
}

// Entries выбранные файлы: сначала галерея, потом камера
func (s *Session) Entries() []media.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Entries()
}

// Photo первый выбранный файл для письма или nil
func (s *Session) Photo() *media.File {
	entries := s.Entries()
	if len(entries) == 0 {
		return nil
	}
	f := entries[0].File
	return &f
}

// Preview файл по дескриптору превью
func (s *Session) Preview(handle string) (media.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Preview(handle)
}

// Debouncer ограничитель частоты захвата локации
func (s *Session) Debouncer() *location.Debouncer {
	return s.debouncer
}

// Location поля локации и статус
func (s *Session) Location() (location.Fields, location.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location, s.locationStatus
}

// ApplyLocation сохраняет итог захвата; пропущенный захват ничего не меняет
func (s *Session) ApplyLocation(res location.Result) {
	if res.Skipped {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = res.Fields
	s.locationStatus = res.Status
}

// Fill дополняет снимок формы захваченными координатами и адресом.
// Значения, введенные пользователем, не перезаписываются.
func (s *Session) Fill(snap form.Snapshot) form.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !snap.HasCoordinates() && s.location.HasCoordinates() {
		snap.Latitude = s.location.Latitude
		snap.Longitude = s.location.Longitude
		snap.CapturedAt = s.location.CapturedAt
	}
	if snap.District == "" {
		snap.District = s.location.District
	}
	if snap.Street == "" {
		snap.Street = s.location.Street
	}
	return snap
}

// SetPDFStatus показывает статус PDF на PDFStatusVisible
func (s *Session) SetPDFStatus(msg string, isError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pdfStatus = newFeedback(msg, isError, s.now(), PDFStatusVisible)
}

// SetEmailStatus успех скрывается через EmailSuccessVisible, прогресс и ошибки остаются
func (s *Session) SetEmailStatus(msg string, isError, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visible time.Duration
	if success {
		visible = EmailSuccessVisible
	}
	s.emailStatus = newFeedback(msg, isError, s.now(), visible)
}

// Reset очищает медиа, локацию и статусы, как при сбросе формы
func (s *Session) Reset() View {
	s.mu.Lock()
	s.selection.Clear()
	s.location = location.Fields{}
	s.locationStatus = location.Status{Message: s.messages.Location.NotCaptured, Kind: location.KindDefault}
	s.pdfStatus = Feedback{}
	s.emailStatus = Feedback{}
	s.mu.Unlock()

	return s.View()
}

// View снимок состояния для клиента
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return View{
		ID:             s.ID,
		Media:          s.selection.Snapshot(),
		Location:       s.location,
		LocationStatus: s.locationStatus,
		PDFStatus:      s.pdfStatus.view(now),
		EmailStatus:    s.emailStatus.view(now),
		Triggers: map[string]email.TriggerView{
			"download": s.Triggers.Download.View(),
			"share":    s.Triggers.Share.View(),
			"email":    s.Triggers.Email.View(),
			"locate":   s.Triggers.Locate.View(),
		},
	}
}

// release освобождает превью при удалении сессии
func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}
