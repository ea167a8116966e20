package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/api/middleware"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RequestTimeout предел обработки одного запроса
const RequestTimeout = 60 * time.Second

type Server struct {
	Router   *gin.Engine
	Handlers *Handlers
	server   *http.Server
	logger   *zap.Logger
}

func NewServer(handlers *Handlers, stats *statistics.Statistics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stats == nil {
		stats = statistics.GetInstance()
	}

	router := gin.New()

	// Две фотографии по 15 MiB плюс поля формы
	router.MaxMultipartMemory = 32 << 20

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(tracing.GinMiddleware())
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.StatisticsMiddleware(stats))

	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	return &Server{
		Router:   router,
		Handlers: handlers,
		logger:   logger,
	}
}

func (s *Server) SetupRoutes() {
	s.Router.GET("/health", s.Handlers.Health.Health)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.Router.Group("/api/v1")
	{
		v1.GET("/statistics", s.Handlers.Statistics.GetStatistics)

		v1.POST("/sessions", s.Handlers.Sessions.Create)

		sessions := v1.Group("/sessions/:id")
		sessions.GET("", s.Handlers.Sessions.Get)
		sessions.DELETE("", s.Handlers.Sessions.Reset)

		sessions.GET("/media", s.Handlers.Media.List)
		sessions.DELETE("/media", s.Handlers.Media.Clear)
		sessions.POST("/media/:source", s.Handlers.Media.Add)
		sessions.GET("/media/previews/:handle", s.Handlers.Media.Preview)

		sessions.POST("/location", s.Handlers.Location.Capture)

		sessions.POST("/reports/pdf", s.Handlers.Reports.PDF)
		sessions.POST("/reports/share-outcome", s.Handlers.Reports.ShareOutcome)
		sessions.POST("/reports/email", s.Handlers.Email.Submit)
	}
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.Router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   RequestTimeout + 10*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", zap.String("addr", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.logger.Info("received signal", zap.String("signal", sig.String()))
		return s.Stop()
	}
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
