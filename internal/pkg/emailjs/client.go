package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"

	"go.uber.org/zap"
)

const (
	serviceName = "emailjs"

	// DefaultAPIURL базовый адрес REST API EmailJS
	DefaultAPIURL = "https://api.emailjs.com"

	sendPath = "/api/v1.0/email/send"
)

// ErrNotConfigured не заданы ключ или идентификаторы сервиса/шаблона
var ErrNotConfigured = errors.New("emailjs: public key, service id and template id are required")

// Config учетные данные EmailJS
type Config struct {
	APIURL     string
	PublicKey  string
	PrivateKey string
	ServiceID  string
	TemplateID string
	Timeout    time.Duration
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Client отправляет письма через шаблон EmailJS
type Client struct {
	cfg    Config
	http   *http.Client
	guard  *upstream.Guard
	logger *zap.Logger
}

// NewClient создает клиента отправки
func NewClient(cfg Config, guard *upstream.Guard, logger *zap.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:    cfg,
		http:   upstream.NewHTTPClient(cfg.Timeout),
		guard:  guard,
		logger: logger.Named(serviceName),
	}
}

// Send отправляет параметры шаблона. Успех только при HTTP 200.
func (c *Client) Send(ctx context.Context, params map[string]string) error {
	if c.cfg.PublicKey == "" || c.cfg.ServiceID == "" || c.cfg.TemplateID == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.guard.Do(ctx, "send", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+sendPath, bytes.NewReader(payload))
		if err != nil {
			return upstream.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		if err := upstream.CheckResponse(serviceName, resp); err != nil {
			return err
		}
		c.logger.Info("email sent", zap.String("template_id", c.cfg.TemplateID))
		return nil
	})
}

// Guard возвращает защиту клиента (для health check)
func (c *Client) Guard() *upstream.Guard {
	return c.guard
}
