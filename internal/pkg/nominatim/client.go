package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/cache"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"

	"go.uber.org/zap"
)

const (
	serviceName = "nominatim"

	// DefaultURL публичный endpoint обратного геокодирования OpenStreetMap
	DefaultURL = "https://nominatim.openstreetmap.org/reverse"

	acceptLanguage = "pt-BR,pt;q=0.9"
)

// Address компоненты адреса из ответа Nominatim (suburb, road, house_number, ...)
type Address map[string]string

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Config настройки клиента
type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// Client клиент обратного геокодирования с кэшем по координатам
type Client struct {
	url       string
	userAgent string
	http      *http.Client
	guard     *upstream.Guard
	cache     *cache.Cache[Address]
	logger    *zap.Logger
}

// NewClient создает клиента. Если CacheTTL > 0, ответы кэшируются; вызывающий обязан вызвать Close.
func NewClient(cfg Config, guard *upstream.Guard, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fala-icara/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		http:      upstream.NewHTTPClient(cfg.Timeout),
		guard:     guard,
		logger:    logger.Named(serviceName),
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New[Address]("geocode", cfg.CacheTTL)
	}
	return c
}

// Reverse возвращает компоненты адреса для координат.
// Если адреса для точки нет, возвращается пустой Address без ошибки.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	key := cacheKey(lat, lon)
	if c.cache != nil {
		if addr, err := c.cache.Get(ctx, key); err == nil {
			return addr, nil
		}
	}

	var addr Address
	err := c.guard.Do(ctx, "reverse", func(ctx context.Context) error {
		var err error
		addr, err = c.reverse(ctx, lat, lon)
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(key, addr)
	}
	return addr, nil
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (Address, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, upstream.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := upstream.CheckResponse(serviceName, resp); err != nil {
		return nil, err
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, upstream.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	// "Unable to geocode" и ответ без address штатные: адреса для точки нет
	if body.Error != "" || len(body.Address) == 0 {
		c.logger.Debug("no address for coordinates", zap.String("reason", body.Error))
		return Address{}, nil
	}

	c.logger.Debug("reverse geocoded", zap.String("display_name", body.DisplayName))
	return Address(body.Address), nil
}

// Close останавливает очистку кэша
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Guard возвращает защиту клиента (для health check)
func (c *Client) Guard() *upstream.Guard {
	return c.guard
}

func cacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}
