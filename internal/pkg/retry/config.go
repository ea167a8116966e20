package retry

import (
	"os"
	"strconv"
	"time"
)

// Config содержит настройки для механизма retry
type Config struct {
	// MaxAttempts максимальное количество попыток включая первую
	MaxAttempts int
	// InitialDelay начальная задержка между попытками
	InitialDelay time.Duration
	// MaxDelay максимальная задержка между попытками
	MaxDelay time.Duration
	// BackoffFactor множитель для экспоненциальной задержки
	BackoffFactor float64
	// RetryableErrors список ошибок, для которых нужно выполнять retry
	RetryableErrors []error
	// OnRetry вызывается перед каждой повторной попыткой (номер следующей попытки и последняя ошибка)
	OnRetry func(attempt int, err error)
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Option функциональный опции для конфигурации
type Option func(*Config)

// WithMaxAttempts устанавливает максимальное количество попыток
func WithMaxAttempts(attempts int) Option {
	return func(c *Config) {
		c.MaxAttempts = attempts
	}
}

// WithInitialDelay устанавливает начальную задержку
func WithInitialDelay(delay time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = delay
	}
}

// WithMaxDelay устанавливает максимальную задержку
func WithMaxDelay(delay time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = delay
	}
}

// WithBackoffFactor устанавливает множитель для экспоненциальной задержки
func WithBackoffFactor(factor float64) Option {
	return func(c *Config) {
		c.BackoffFactor = factor
	}
}

// WithRetryableErrors устанавливает список ошибок для retry
func WithRetryableErrors(errors []error) Option {
	return func(c *Config) {
		c.RetryableErrors = errors
	}
}

// WithOnRetry устанавливает хук, вызываемый перед повторной попыткой
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// WithoutBackoff убирает задержку между попытками
func WithoutBackoff() Option {
	return func(c *Config) {
		c.InitialDelay = 0
		c.MaxDelay = 0
	}
}

// FromEnv собирает опции для внешнего сервиса из переменных окружения
// <PREFIX>_RETRY_MAX_ATTEMPTS, <PREFIX>_RETRY_INITIAL_DELAY, <PREFIX>_RETRY_MAX_DELAY, <PREFIX>_RETRY_BACKOFF_FACTOR
func FromEnv(prefix string, defaults *Config) []Option {
	if defaults == nil {
		defaults = DefaultConfig()
	}
	return []Option{
		WithMaxAttempts(envInt(prefix+"_RETRY_MAX_ATTEMPTS", defaults.MaxAttempts)),
		WithInitialDelay(envDuration(prefix+"_RETRY_INITIAL_DELAY", defaults.InitialDelay)),
		WithMaxDelay(envDuration(prefix+"_RETRY_MAX_DELAY", defaults.MaxDelay)),
		WithBackoffFactor(envFloat(prefix+"_RETRY_BACKOFF_FACTOR", defaults.BackoffFactor)),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
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

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 1 {
			return f
		}
	}
	return def
}
