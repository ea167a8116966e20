package media

import (
	"fmt"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"
)

// Selection выбор файлов одной сессии. Не потокобезопасен, владелец сериализует доступ.
type Selection struct {
	gallery []File
	camera  []File

	previews *PreviewStore
	handles  []string
}

// NewSelection создает пустой выбор; превью регистрируются в store
func NewSelection(store *PreviewStore) *Selection {
	if store == nil {
		store = NewPreviewStore()
	}
	return &Selection{previews: store}
}

// Add добавляет файлы источника по одному: не-изображения, файлы сверх лимита
// и дубликаты из любого источника отклоняются.
func (s *Selection) Add(source Source, files []File) Snapshot {
	var rejected []Rejection
	for _, f := range files {
		if reason := s.admit(f); reason != "" {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: reason})
			metrics.MediaRejectedTotal.WithLabelValues(reason).Inc()
			continue
		}
		s.set(source, append(s.list(source), f))
	}

	snap := s.render()
	snap.Rejected = rejected
	return snap
}

// Replace заменяет файлы источника первыми изображениями, насколько хватает
// мест с учетом другого источника. Дубликаты файлов другого источника
// и повторы внутри files отклоняются.
func (s *Selection) Replace(source Source, files []File) Snapshot {
	other := s.list(source.other())
	slots := MaxTotalFiles - len(other)
	if slots < 0 {
		slots = 0
	}

	var (
		next     []File
		rejected []Rejection
	)
	for _, f := range files {
		switch {
		case !f.IsImage():
			rejected = append(rejected, Rejection{Name: f.Name, Reason: ReasonNotImage})
		case containsFile(other, f) || containsFile(next, f):
			rejected = append(rejected, Rejection{Name: f.Name, Reason: ReasonDuplicate})
		case len(next) >= slots:
			rejected = append(rejected, Rejection{Name: f.Name, Reason: ReasonLimit})
		default:
			next = append(next, f)
			continue
		}
		metrics.MediaRejectedTotal.WithLabelValues(rejected[len(rejected)-1].Reason).Inc()
	}
	s.set(source, next)

	snap := s.render()
	snap.Rejected = rejected
	return snap
}

// Clear очищает оба источника и освобождает все превью
func (s *Selection) Clear() Snapshot {
	s.revokeAll()
	s.gallery = nil
	s.camera = nil
	return s.snapshot()
}

// Snapshot текущее состояние без перерисовки превью
func (s *Selection) Snapshot() Snapshot {
	return s.snapshot()
}

// Gallery копия файлов из галереи
func (s *Selection) Gallery() []File {
	return append([]File(nil), s.gallery...)
}

// Camera копия файлов с камеры
func (s *Selection) Camera() []File {
	return append([]File(nil), s.camera...)
}

// Entries все файлы: сначала галерея, затем камера
func (s *Selection) Entries() []Entry {
	entries := make([]Entry, 0, s.Count())
	for _, f := range s.gallery {
		entries = append(entries, Entry{File: f, Source: SourceGallery})
	}
	for _, f := range s.camera {
		entries = append(entries, Entry{File: f, Source: SourceCamera})
	}
	return entries
}

// Count общее количество выбранных файлов
func (s *Selection) Count() int {
	return len(s.gallery) + len(s.camera)
}

// Preview возвращает файл по дескриптору превью
func (s *Selection) Preview(handle string) (File, bool) {
	return s.previews.Get(handle)
}

func (s *Selection) admit(f File) string {
	if !f.IsImage() {
		return ReasonNotImage
	}
	if s.Count() >= MaxTotalFiles {
		return ReasonLimit
	}
	for _, e := range s.Entries() {
		if e.File.sameAs(f) {
			return ReasonDuplicate
		}
	}
	return ""
}

func containsFile(files []File, f File) bool {
	for _, o := range files {
		if o.sameAs(f) {
			return true
		}
	}
	return false
}

// render освобождает старые превью и создает новые
func (s *Selection) render() Snapshot {
	s.revokeAll()
	for _, e := range s.Entries() {
		s.handles = append(s.handles, s.previews.Create(e.File))
	}
	return s.snapshot()
}

func (s *Selection) revokeAll() {
	for _, h := range s.handles {
		s.previews.Revoke(h)
	}
	s.handles = nil
}

func (s *Selection) snapshot() Snapshot {
	snap := Snapshot{
		GalleryCount: len(s.gallery),
		CameraCount:  len(s.camera),
		Counters: Counters{
			Gallery: fmt.Sprintf("Galeria %d", len(s.gallery)),
			Camera:  fmt.Sprintf("Câmera %d", len(s.camera)),
			Total:   fmt.Sprintf("Total %d/%d", s.Count(), MaxTotalFiles),
		},
		Previews: []Preview{},
	}

	entries := s.Entries()
	if len(entries) == 0 {
		snap.Empty = EmptyText
		return snap
	}
	for i, e := range entries {
		p := Preview{
			Source: e.Source,
			Label:  e.Source.Label(),
			Name:   e.File.Name,
			Alt:    "Pré-visualização de " + e.File.Name,
		}
		if i < len(s.handles) {
			p.Handle = s.handles[i]
		}
		snap.Previews = append(snap.Previews, p)
	}
	return snap
}

func (s *Selection) list(source Source) []File {
	if source == SourceCamera {
		return s.camera
	}
	return s.gallery
}

func (s *Selection) set(source Source, files []File) {
	if source == SourceCamera {
		s.camera = files
		return
	}
	s.gallery = files
}
