package handlers

import (
	"net/http"

	"github.com/Diego-Cesare/fala-icara/internal/domain/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler создание и сброс сессий формы
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler создает обработчик сессий
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// load находит сессию из параметра :id; при ошибке ответ уже отправлен
func (h *SessionHandler) load(c *gin.Context) (*session.Session, bool) {
	s, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "")
		return nil, false
	}
	return s, true
}

// Create POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	s := h.store.Create()
	c.JSON(http.StatusCreated, s.View())
}

// Get GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Reset DELETE /api/v1/sessions/:id: сброс формы
func (h *SessionHandler) Reset(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Reset())
}
