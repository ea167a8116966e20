package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL время жизни неактивной сессии
const DefaultTTL = 30 * time.Minute

// ErrNotFound сессия не найдена или истекла
var ErrNotFound = errors.New("session not found")

// Store сессии по UUID с истечением по простою
type Store struct {
	sessions *cache.Cache[*Session]
	messages *config.Messages
	logger   *zap.Logger
}

// NewStore создает хранилище. Close обязателен.
func NewStore(ttl time.Duration, messages *config.Messages, logger *zap.Logger, opts ...cache.Option[*Session]) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sessions")

	opts = append(opts, cache.WithOnEvict(func(id string, s *Session) {
		s.release()
		logger.Debug("session released", zap.String("session_id", id))
	}))

	return &Store{
		sessions: cache.New[*Session]("sessions", ttl, opts...),
		messages: messages,
		logger:   logger,
	}
}

// Create создает новую сессию
func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.messages)
	st.sessions.Set(s.ID, s)
	st.logger.Debug("session created", zap.String("session_id", s.ID))
	return s
}

// Get возвращает сессию и продлевает ее жизнь
func (st *Store) Get(ctx context.Context, id string) (*Session, error) {
	s, err := st.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	st.sessions.Touch(id)
	return s, nil
}

// Delete удаляет сессию и освобождает ее превью
func (st *Store) Delete(ctx context.Context, id string) {
	st.sessions.Delete(ctx, id)
}

// Len количество живых сессий
func (st *Store) Len() int {
	return st.sessions.Len()
}

// Close останавливает фоновую очистку
func (st *Store) Close() {
	st.sessions.Close()
}
