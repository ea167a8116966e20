package api

import (
	"github.com/Diego-Cesare/fala-icara/internal/api/handlers"
	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/email"
	"github.com/Diego-Cesare/fala-icara/internal/domain/location"
	"github.com/Diego-Cesare/fala-icara/internal/domain/report"
	"github.com/Diego-Cesare/fala-icara/internal/domain/session"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"
)

// Deps зависимости обработчиков
type Deps struct {
	Sessions   *session.Store
	Location   *location.Service
	Assembler  *report.Assembler
	Email      *email.Pipeline
	Messages   *config.Messages
	Statistics *statistics.Statistics
	Guards     []*upstream.Guard
}

// Handlers содержит все обработчики API
type Handlers struct {
	Sessions   *handlers.SessionHandler
	Media      *handlers.MediaHandler
	Location   *handlers.LocationHandler
	Reports    *handlers.ReportHandler
	Email      *handlers.EmailHandler
	Statistics *handlers.StatisticsHandler
	Health     *handlers.HealthHandler
}

// NewHandlers создает новые обработчики
func NewHandlers(deps Deps) *Handlers {
	if deps.Messages == nil {
		deps.Messages = config.DefaultMessages()
	}
	if deps.Statistics == nil {
		deps.Statistics = statistics.GetInstance()
	}

	sessions := handlers.NewSessionHandler(deps.Sessions)
	return &Handlers{
		Sessions:   sessions,
		Media:      handlers.NewMediaHandler(sessions),
		Location:   handlers.NewLocationHandler(sessions, deps.Location, deps.Messages),
		Reports:    handlers.NewReportHandler(sessions, deps.Assembler, deps.Messages, deps.Statistics),
		Email:      handlers.NewEmailHandler(sessions, deps.Email, deps.Messages, deps.Statistics),
		Statistics: handlers.NewStatisticsHandler(deps.Statistics),
		Health:     handlers.NewHealthHandler(deps.Guards...),
	}
}
