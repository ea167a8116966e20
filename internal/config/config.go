package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Часовой пояс отчета не должен зависеть от zoneinfo контейнера
	_ "time/tzdata"
)

// Config конфигурация сервиса из переменных окружения
type Config struct {
	Port     string
	LogLevel string

	EmailJS    EmailJSConfig
	Cloudinary CloudinaryConfig
	Nominatim  NominatimConfig
	Email      EmailConfig
	Report     ReportConfig
	Session    SessionConfig
	Postgres   PostgresConfig
	Tracing    TracingConfig

	Messages *Messages
}

type EmailJSConfig struct {
	APIURL         string
	PublicKey      string
	PrivateKey     string
	ServiceID      string
	TemplateID     string
	RecipientEmail string
	Timeout        time.Duration
}

type CloudinaryConfig struct {
	APIURL       string
	CloudName    string
	UploadPreset string
	Timeout      time.Duration
}

type NominatimConfig struct {
	URL       string
	UserAgent string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// EmailConfig стратегия email пайплайна: inline | hosted | none и обратное геокодирование
type EmailConfig struct {
	PhotoStrategy string
	Geocode       bool
}

type ReportConfig struct {
	Timezone string
}

type SessionConfig struct {
	TTL time.Duration
}

// PostgresConfig необязательная БД статистики; пустой Host отключает ее
type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type TracingConfig struct {
	Endpoint     string
	ServiceName  string
	Environment  string
	SamplingRate float64
}

// Enabled сообщает, задано ли подключение к PostgreSQL
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// DSN строка подключения lib/pq
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		p.Host, p.Port, p.DB, p.User, p.Password, p.SSLMode)
}

// Load читает конфигурацию из окружения
func Load() (*Config, error) {
	messages, err := LoadMessages()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:     getEnvWithDefault("PORT", "8080"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
		EmailJS: EmailJSConfig{
			APIURL:         os.Getenv("EMAILJS_API_URL"),
			PublicKey:      os.Getenv("EMAILJS_PUBLIC_KEY"),
			PrivateKey:     os.Getenv("EMAILJS_PRIVATE_KEY"),
			ServiceID:      os.Getenv("EMAILJS_SERVICE_ID"),
			TemplateID:     os.Getenv("EMAILJS_TEMPLATE_ID"),
			RecipientEmail: os.Getenv("REPORT_RECIPIENT_EMAIL"),
			Timeout:        getEnvDurationWithDefault("EMAILJS_TIMEOUT", 15*time.Second),
		},
		Cloudinary: CloudinaryConfig{
			APIURL:       os.Getenv("CLOUDINARY_API_URL"),
			CloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
			UploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
			Timeout:      getEnvDurationWithDefault("CLOUDINARY_TIMEOUT", 30*time.Second),
		},
		Nominatim: NominatimConfig{
			URL:       os.Getenv("NOMINATIM_URL"),
			UserAgent: getEnvWithDefault("NOMINATIM_USER_AGENT", "fala-icara/1.0"),
			CacheTTL:  getEnvDurationWithDefault("GEOCODE_CACHE_TTL", 30*time.Minute),
			Timeout:   getEnvDurationWithDefault("NOMINATIM_TIMEOUT", 10*time.Second),
		},
		Email: EmailConfig{
			PhotoStrategy: strings.ToLower(getEnvWithDefault("EMAIL_PHOTO_STRATEGY", "inline")),
			Geocode:       getEnvBoolWithDefault("EMAIL_GEOCODE", true),
		},
		Report: ReportConfig{
			Timezone: getEnvWithDefault("REPORT_TIMEZONE", "America/Sao_Paulo"),
		},
		Session: SessionConfig{
			TTL: getEnvDurationWithDefault("SESSION_TTL", 30*time.Minute),
		},
		Postgres: PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnvWithDefault("POSTGRES_PORT", "5432"),
			DB:       getEnvWithDefault("POSTGRES_DB", "fala_icara"),
			User:     getEnvWithDefault("POSTGRES_USER", "fala_icara"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			SSLMode:  getEnvWithDefault("POSTGRES_SSLMODE", "disable"),
		},
		Tracing: TracingConfig{
			Endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnvWithDefault("OTEL_SERVICE_NAME", "fala-icara"),
			Environment:  getEnvWithDefault("OTEL_ENVIRONMENT", "production"),
			SamplingRate: getEnvFloatWithDefault("OTEL_SAMPLING_RATE", 1.0),
		},
		Messages: messages,
	}

	switch cfg.Email.PhotoStrategy {
	case "inline", "hosted", "none":
	default:
		return nil, fmt.Errorf("invalid EMAIL_PHOTO_STRATEGY %q: want inline, hosted or none", cfg.Email.PhotoStrategy)
	}
	if _, err := time.LoadLocation(cfg.Report.Timezone); err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", cfg.Report.Timezone, err)
	}

	return cfg, nil
}

// getEnvWithDefault возвращает значение переменной окружения или значение по умолчанию
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationWithDefault возвращает значение длительности из переменной окружения или значение по умолчанию
func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
