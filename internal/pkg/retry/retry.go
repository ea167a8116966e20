package retry

import (
	"context"
	"strconv"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Operation представляет операцию, которую нужно повторить
type Operation func(ctx context.Context) error

type attemptKey struct{}

// AttemptFromContext возвращает номер текущей попытки (начиная с 1).
// Вне Retrier.Do возвращает 1.
func AttemptFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok {
		return n
	}
	return 1
}

// Retrier выполняет повторные попытки операции
type Retrier struct {
	config    *Config
	logger    *zap.Logger
	operation string
}

// New создает новый экземпляр Retrier
func New(operation string, logger *zap.Logger, opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Retrier{
		config:    config,
		logger:    logger.With(zap.String("operation", operation)),
		operation: operation,
	}
}

// MaxAttempts возвращает настроенное количество попыток
func (r *Retrier) MaxAttempts() int {
	return r.config.MaxAttempts
}

// Do выполняет операцию с повторными попытками
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	start := time.Now()
	var lastErr error

	metrics.RetryCurrentAttempts.WithLabelValues(r.operation).Inc()
	defer metrics.RetryCurrentAttempts.WithLabelValues(r.operation).Dec()

	totalAttempts := 0

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		attemptStr := strconv.Itoa(attempt)
		attemptStart := time.Now()
		totalAttempts++

		metrics.RetryAttemptsTotal.WithLabelValues(r.operation, attemptStr, "started").Inc()

		err := op(context.WithValue(ctx, attemptKey{}, attempt))
		attemptDuration := time.Since(attemptStart)

		metrics.RetryOperationDuration.WithLabelValues(
			r.operation,
			attemptStr,
			errorToStatus(err, ctx),
		).Observe(attemptDuration.Seconds())

		if err == nil {
			metrics.RetryAttemptsTotal.WithLabelValues(r.operation, attemptStr, "success").Inc()
			metrics.RetrySuccessRate.WithLabelValues(r.operation).Set(1 / float64(totalAttempts))
			if attempt > 1 {
				r.logger.Info("operation succeeded after retry",
					zap.Int("attempt", attempt),
					zap.Duration("total_duration", time.Since(start)),
				)
			}
			return nil
		}

		lastErr = err
		r.logger.Warn("retry attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
			zap.Duration("duration", attemptDuration),
		)

		metrics.RetryAttemptsTotal.WithLabelValues(r.operation, attemptStr, "failed").Inc()
		metrics.RetryErrorsTotal.WithLabelValues(
			r.operation,
			classifyError(err, ctx),
			attemptStr,
		).Inc()

		// Если контекст отменен, прекращаем попытки
		if ctx.Err() != nil {
			metrics.RetryAttemptsTotal.WithLabelValues(r.operation, attemptStr, "cancelled").Inc()
			return ctx.Err()
		}

		// Если ошибка не подлежит retry, прекращаем попытки
		if !IsRetryable(err, r.config.RetryableErrors) {
			metrics.RetryAttemptsTotal.WithLabelValues(r.operation, attemptStr, "non_retryable").Inc()
			return &RetryError{
				Attempt:       attempt,
				OriginalError: err,
			}
		}

		// Если это последняя попытка, не нужно ждать
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt)
		metrics.RetryBackoffDuration.WithLabelValues(r.operation, attemptStr).Observe(delay.Seconds())

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				metrics.RetryAttemptsTotal.WithLabelValues(r.operation, attemptStr, "cancelled").Inc()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err)
		}
	}

	metrics.RetrySuccessRate.WithLabelValues(r.operation).Set(0)

	if lastErr != nil {
		metrics.RetryAttemptsTotal.WithLabelValues(r.operation, strconv.Itoa(r.config.MaxAttempts), "max_attempts").Inc()
		return &RetryError{
			Attempt:       r.config.MaxAttempts,
			OriginalError: lastErr,
		}
	}

	return ErrMaxAttemptsReached
}

// calculateDelay вычисляет задержку для следующей попытки
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= r.config.BackoffFactor
	}

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	return time.Duration(delay)
}

// errorToStatus преобразует ошибку в статус для метрик
func errorToStatus(err error, ctx context.Context) string {
	if err == nil {
		return "success"
	}
	if ctx.Err() != nil {
		return "cancelled"
	}
	return "error"
}

// classifyError классифицирует ошибку для метрик
func classifyError(err error, ctx context.Context) string {
	if err == nil {
		return "none"
	}

	switch {
	case ctx.Err() != nil:
		return "context_cancelled"
	case IsTimeout(err):
		return "timeout"
	case IsConnectionError(err):
		return "connection"
	case IsValidationError(err):
		return "validation"
	default:
		return "unknown"
	}
}
