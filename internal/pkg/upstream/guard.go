package upstream

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/circuitbreaker"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Guard комбинирует retry и circuit breaker вокруг вызовов одного внешнего сервиса
type Guard struct {
	service string
	cb      *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	logger  *zap.Logger
}

// NewGuard создает Guard с явными настройками
func NewGuard(service string, logger *zap.Logger, cbConfig circuitbreaker.Config, retryOpts ...retry.Option) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	cbConfig.Name = service

	return &Guard{
		service: service,
		cb:      circuitbreaker.NewCircuitBreaker(cbConfig),
		retrier: retry.New(service, logger, retryOpts...),
		logger:  logger.With(zap.String("service", service)),
	}
}

// NewGuardFromEnv создает Guard, читая <SERVICE>_RETRY_* и CIRCUIT_BREAKER_* из окружения
func NewGuardFromEnv(service string, logger *zap.Logger, retryDefaults *retry.Config) *Guard {
	prefix := strings.ToUpper(service)
	return NewGuard(service, logger, circuitbreaker.ConfigFromEnv(service), retry.FromEnv(prefix, retryDefaults)...)
}

// Do выполняет fn через circuit breaker с повторными попытками.
// Отказ открытого circuit breaker не повторяется.
func (g *Guard) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, g.service+"."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("upstream.service", g.service),
		attribute.String("upstream.operation", operation),
	)

	start := time.Now()
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		err := g.cb.Execute(ctx, fn)
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return Permanent(err)
		}
		return err
	})

	elapsed := time.Since(start)
	metrics.UpstreamRequestDuration.WithLabelValues(g.service, operation).Observe(elapsed.Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(g.service, statusLabel(err)).Inc()
	// ошибка записи уже залогирована внутри statistics
	_ = statistics.GetInstance().TrackUpstream(g.service, elapsed, err == nil)

	if err != nil {
		tracing.RecordError(ctx, err)
		g.logger.Warn("upstream call failed",
			zap.String("operation", operation),
			zap.Error(err),
			zap.String("circuit_state", g.cb.State().String()),
		)
	}
	return err
}

// State возвращает текущее состояние Circuit Breaker
func (g *Guard) State() circuitbreaker.State {
	return g.cb.State()
}

// IsHealthy возвращает true, если Circuit Breaker принимает запросы
func (g *Guard) IsHealthy() bool {
	return g.cb.IsHealthy()
}

// Service возвращает имя внешнего сервиса
func (g *Guard) Service() string {
	return g.service
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case retry.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	if code := StatusCode(err); code != 0 {
		return strconv.Itoa(code)
	}
	if retry.IsConnectionError(err) {
		return "connection"
	}
	return "error"
}
