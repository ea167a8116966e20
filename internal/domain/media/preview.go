package media

import (
	"sync"

	"github.com/google/uuid"
)

// Preview карточка превью
type Preview struct {
	Handle string `json:"handle"`
	Source Source `json:"source"`
	Label  string `json:"label"`
	Name   string `json:"name"`
	Alt    string `json:"alt"`
}

// PreviewStore выдает временные дескрипторы для отображения выбранных файлов
type PreviewStore struct {
	mu    sync.Mutex
	items map[string]File
}

// NewPreviewStore создает пустое хранилище
func NewPreviewStore() *PreviewStore {
	return &PreviewStore{items: make(map[string]File)}
}

// Create регистрирует файл и возвращает дескриптор
func (s *PreviewStore) Create(f File) string {
	handle := uuid.NewString()
	s.mu.Lock()
	s.items[handle] = f
	s.mu.Unlock()
	return handle
}

// Get возвращает файл по живому дескриптору
func (s *PreviewStore) Get(handle string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[handle]
	return f, ok
}

// Revoke освобождает дескриптор
func (s *PreviewStore) Revoke(handle string) {
	s.mu.Lock()
	delete(s.items, handle)
	s.mu.Unlock()
}

// Live количество неосвобожденных дескрипторов
func (s *PreviewStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
