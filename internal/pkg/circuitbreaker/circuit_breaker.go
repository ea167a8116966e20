package circuitbreaker

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// State представляет состояние Circuit Breaker
type State int

const (
	StateClosed   State = iota // Нормальное состояние, запросы проходят
	StateOpen                  // Состояние отказа, запросы блокируются
	StateHalfOpen              // Тестовое состояние, пропускается часть запросов
)

var (
	// ErrCircuitOpen возвращается, когда Circuit Breaker находится в открытом состоянии
	ErrCircuitOpen = errors.New("circuit breaker is open")

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
		},
		[]string{"name"},
	)

	circuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures detected by circuit breaker",
		},
		[]string{"name"},
	)

	circuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests passed through circuit breaker",
		},
		[]string{"name", "status"},
	)

	circuitBreakerRecoveryTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuit_breaker_recovery_duration_seconds",
			Help:    "Time taken to recover from Open to Closed state",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"name"},
	)
)

// Config содержит настройки для Circuit Breaker
type Config struct {
	Name             string        // Имя внешнего сервиса для метрик (nominatim, cloudinary, emailjs)
	FailureThreshold int           // Количество ошибок до перехода в состояние Open
	ResetTimeout     time.Duration // Время до перехода из Open в Half-Open
	HalfOpenMaxCalls int           // Максимальное количество запросов в состоянии Half-Open
	SuccessThreshold int           // Количество успешных запросов для перехода из Half-Open в Closed

	// IsFailure решает, считать ли ошибку отказом сервиса.
	// По умолчанию отказом считается любая ошибка, кроме отмены запроса клиентом.
	IsFailure func(err error) bool
}

// ConfigFromEnv читает CIRCUIT_BREAKER_* переменные окружения
func ConfigFromEnv(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: envInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
		ResetTimeout:     envDuration("CIRCUIT_BREAKER_RESET_TIMEOUT", 10*time.Second),
		HalfOpenMaxCalls: envInt("CIRCUIT_BREAKER_HALF_OPEN_MAX_CALLS", 2),
		SuccessThreshold: envInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
	}
}

// CircuitBreaker реализует паттерн Circuit Breaker
type CircuitBreaker struct {
	config Config
	state  State

	failures        int       // Счетчик последовательных ошибок
	lastStateChange time.Time // Время последнего изменения состояния
	successes       int       // Счетчик успешных запросов в Half-Open состоянии
	halfOpenCalls   int       // Счетчик запросов в Half-Open состоянии
	openStartTime   time.Time // Время перехода в состояние Open

	mu sync.RWMutex
}

// NewCircuitBreaker создает новый экземпляр Circuit Breaker
func NewCircuitBreaker(config Config) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = defaultIsFailure
	}

	cb := &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
	circuitBreakerState.WithLabelValues(config.Name).Set(float64(StateClosed))
	return cb
}

func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Execute выполняет функцию с учетом состояния Circuit Breaker
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.allowRequest() {
		circuitBreakerRequests.WithLabelValues(cb.config.Name, "rejected").Inc()
		return ErrCircuitOpen
	}

	err := fn(ctx)
	cb.handleResult(err)

	if err != nil {
		circuitBreakerRequests.WithLabelValues(cb.config.Name, "failure").Inc()
		return err
	}

	circuitBreakerRequests.WithLabelValues(cb.config.Name, "success").Inc()
	return nil
}

// allowRequest проверяет, можно ли выполнить запрос
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastStateChange) > cb.config.ResetTimeout {
			cb.setState(StateHalfOpen)
			cb.halfOpenCalls++
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true
	default:
		return false
	}
}

// handleResult обрабатывает результат выполнения запроса
func (cb *CircuitBreaker) handleResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.config.IsFailure(err) {
		circuitBreakerFailures.WithLabelValues(cb.config.Name).Inc()
		switch cb.state {
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.config.FailureThreshold {
				cb.setState(StateOpen)
			}
		case StateHalfOpen:
			cb.setState(StateOpen)
		}
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
		}
	}
}

// setState переводит Circuit Breaker в новое состояние и сбрасывает счетчики
func (cb *CircuitBreaker) setState(state State) {
	prev := cb.state
	cb.state = state
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenCalls = 0

	switch state {
	case StateOpen:
		if prev != StateHalfOpen || cb.openStartTime.IsZero() {
			cb.openStartTime = time.Now()
		}
	case StateClosed:
		if !cb.openStartTime.IsZero() {
			circuitBreakerRecoveryTime.WithLabelValues(cb.config.Name).Observe(time.Since(cb.openStartTime).Seconds())
			cb.openStartTime = time.Time{}
		}
	}
	circuitBreakerState.WithLabelValues(cb.config.Name).Set(float64(state))
}

// State возвращает текущее состояние Circuit Breaker
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// IsHealthy возвращает true, если Circuit Breaker может принимать запросы
func (cb *CircuitBreaker) IsHealthy() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state == StateClosed || (cb.state == StateHalfOpen && cb.halfOpenCalls < cb.config.HalfOpenMaxCalls)
}

// Name возвращает имя защищаемого сервиса
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// String возвращает строковое представление состояния
func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
