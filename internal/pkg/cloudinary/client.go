package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"

	"go.uber.org/zap"
)

const (
	serviceName = "cloudinary"

	// DefaultAPIURL базовый адрес API загрузки
	DefaultAPIURL = "https://api.cloudinary.com"
)

var (
	// ErrNotConfigured не заданы cloud name или upload preset
	ErrNotConfigured = errors.New("cloudinary: cloud name and upload preset are required")
	// ErrNoURL в ответе нет secure_url
	ErrNoURL = errors.New("cloudinary: response has no secure_url")
)

// Config настройки unsigned загрузки
type Config struct {
	APIURL       string
	CloudName    string
	UploadPreset string
	Timeout      time.Duration
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client загружает фотографии на хостинг изображений
type Client struct {
	cfg    Config
	http   *http.Client
	guard  *upstream.Guard
	logger *zap.Logger
}

// NewClient создает клиента загрузки
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

// Upload загружает изображение и возвращает его публичный HTTPS адрес
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if c.cfg.CloudName == "" || c.cfg.UploadPreset == "" {
		return "", ErrNotConfigured
	}

	var secureURL string
	err := c.guard.Do(ctx, "upload", func(ctx context.Context) error {
		var err error
		secureURL, err = c.upload(ctx, filename, data)
		return err
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("image uploaded", zap.String("filename", filename), zap.Int("size", len(data)))
	return secureURL, nil
}

func (c *Client) upload(ctx context.Context, filename string, data []byte) (string, error) {
	// Форма собирается заново на каждую попытку, тело запроса одноразовое
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", upstream.Permanent(fmt.Errorf("failed to create form file: %w", err))
	}
	if _, err := part.Write(data); err != nil {
		return "", upstream.Permanent(fmt.Errorf("failed to write file content: %w", err))
	}
	if err := writer.WriteField("upload_preset", c.cfg.UploadPreset); err != nil {
		return "", upstream.Permanent(fmt.Errorf("failed to write upload preset: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", upstream.Permanent(fmt.Errorf("failed to close writer: %w", err))
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.APIURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", upstream.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := upstream.CheckResponse(serviceName, resp); err != nil {
		return "", err
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", upstream.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if out.Error != nil {
		return "", upstream.Permanent(fmt.Errorf("cloudinary: %s", out.Error.Message))
	}
	if out.SecureURL == "" {
		return "", upstream.Permanent(ErrNoURL)
	}
	return out.SecureURL, nil
}

// Guard возвращает защиту клиента (для health check)
func (c *Client) Guard() *upstream.Guard {
	return c.guard
}
