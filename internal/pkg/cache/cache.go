package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ErrMiss возвращается, когда ключ отсутствует или его срок жизни истек
var ErrMiss = errors.New("cache miss")

type item[V any] struct {
	value      V
	expiration time.Time
}

// Cache представляет кэш с поддержкой TTL.
// Используется для обратного геокодирования и для хранения сессий.
type Cache[V any] struct {
	name    string
	ttl     time.Duration
	metrics *Metrics
	onEvict func(key string, value V)

	mu    sync.Mutex
	items map[string]item[V]

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option настраивает кэш
type Option[V any] func(*Cache[V])

// WithOnEvict задает функцию, вызываемую при удалении элемента по TTL, Delete или Clear
func WithOnEvict[V any](fn func(key string, value V)) Option[V] {
	return func(c *Cache[V]) {
		c.onEvict = fn
	}
}

// WithMetrics подменяет набор метрик (в тестах метрики на отдельном реестре)
func WithMetrics[V any](m *Metrics) Option[V] {
	return func(c *Cache[V]) {
		c.metrics = m
	}
}

// New создает кэш и запускает фоновую очистку устаревших элементов.
// Вызывающий обязан вызвать Close.
func New[V any](name string, ttl time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		name:    name,
		ttl:     ttl,
		metrics: defaultMetrics,
		items:   make(map[string]item[V]),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if ttl > 0 {
		c.wg.Add(1)
		go c.cleanupLoop()
	}
	return c
}

// Set добавляет значение в кэш, продлевая срок жизни существующего ключа
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.items[key] = item[V]{value: value, expiration: c.expiresAt()}
	n := len(c.items)
	c.mu.Unlock()

	c.metrics.Items.WithLabelValues(c.name).Set(float64(n))
}

// Get получает значение из кэша
func (c *Cache[V]) Get(ctx context.Context, key string) (V, error) {
	ctx, span := tracing.StartSpan(ctx, "Cache.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.name", c.name),
		attribute.String("cache.key", key),
	)

	var zero V
	c.mu.Lock()
	it, exists := c.items[key]
	if exists && c.expired(it, time.Now()) {
		delete(c.items, key)
		c.mu.Unlock()
		c.evict(key, it.value)
		c.metrics.Misses.WithLabelValues(c.name).Inc()
		err := fmt.Errorf("%w: key %s expired", ErrMiss, key)
		tracing.RecordError(ctx, err)
		return zero, err
	}
	c.mu.Unlock()

	if !exists {
		c.metrics.Misses.WithLabelValues(c.name).Inc()
		err := fmt.Errorf("%w: key %s not found", ErrMiss, key)
		tracing.RecordError(ctx, err)
		return zero, err
	}

	c.metrics.Hits.WithLabelValues(c.name).Inc()
	span.AddEvent("Cache hit")
	return it.value, nil
}

// Touch продлевает срок жизни ключа, если он еще жив
func (c *Cache[V]) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || c.expired(it, time.Now()) {
		return false
	}
	it.expiration = c.expiresAt()
	c.items[key] = it
	return true
}

// Delete удаляет значение из кэша
func (c *Cache[V]) Delete(ctx context.Context, key string) {
	_, span := tracing.StartSpan(ctx, "Cache.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.name", c.name),
		attribute.String("cache.key", key),
	)

	c.mu.Lock()
	it, ok := c.items[key]
	delete(c.items, key)
	n := len(c.items)
	c.mu.Unlock()

	if ok {
		c.evict(key, it.value)
	}
	c.metrics.Items.WithLabelValues(c.name).Set(float64(n))
	span.AddEvent("Cache entry deleted")
}

// Clear очищает весь кэш
func (c *Cache[V]) Clear(ctx context.Context) {
	_, span := tracing.StartSpan(ctx, "Cache.Clear")
	defer span.End()

	c.mu.Lock()
	old := c.items
	c.items = make(map[string]item[V])
	c.mu.Unlock()

	for k, it := range old {
		c.evict(k, it.value)
	}
	c.metrics.Items.WithLabelValues(c.name).Set(0)
	span.AddEvent("Cache cleared")
}

// Len возвращает количество элементов, включая еще не вычищенные устаревшие
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close останавливает фоновую очистку. Повторный вызов безопасен.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.wg.Wait()
}

func (c *Cache[V]) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.purge(now)
		}
	}
}

// purge удаляет устаревшие элементы
func (c *Cache[V]) purge(now time.Time) {
	type evicted struct {
		key   string
		value V
	}
	var removed []evicted

	c.mu.Lock()
	for k, it := range c.items {
		if c.expired(it, now) {
			delete(c.items, k)
			removed = append(removed, evicted{k, it.value})
		}
	}
	n := len(c.items)
	c.mu.Unlock()

	for _, e := range removed {
		c.evict(e.key, e.value)
	}
	c.metrics.Items.WithLabelValues(c.name).Set(float64(n))
}

func (c *Cache[V]) expiresAt() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}

func (c *Cache[V]) expired(it item[V], now time.Time) bool {
	return !it.expiration.IsZero() && now.After(it.expiration)
}

func (c *Cache[V]) evict(key string, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}
