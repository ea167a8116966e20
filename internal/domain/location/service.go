package location

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/nominatim"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"

	"go.uber.org/zap"
)

// Kind оформление статуса
type Kind string

const (
	KindDefault Kind = "default"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Status сообщение для пользователя
type Status struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// Fields поля формы, которые заполняет захват локации
type Fields struct {
	Latitude   string `json:"latitude"`
	Longitude  string `json:"longitude"`
	CapturedAt string `json:"captured_at"`
	District   string `json:"district"`
	Street     string `json:"street"`
}

// HasCoordinates сообщает, захвачены ли координаты
func (f Fields) HasCoordinates() bool {
	return f.Latitude != "" && f.Longitude != ""
}

// Result итог захвата локации
type Result struct {
	Fields   Fields   `json:"fields"`
	Status   Status   `json:"status"`
	Progress []Status `json:"progress,omitempty"`
	Skipped  bool     `json:"skipped"`
	Attempts int      `json:"attempts"`
}

// Geocoder обратное геокодирование
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (nominatim.Address, error)
}

// Service захват геолокации и заполнение адреса
type Service struct {
	geocoder Geocoder
	messages config.LocationMessages
	logger   *zap.Logger
	now      func() time.Time
}

// NewService создает сервис
func NewService(geocoder Geocoder, messages *config.Messages, logger *zap.Logger) *Service {
	if messages == nil {
		messages = config.DefaultMessages()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		geocoder: geocoder,
		messages: messages.Location,
		logger:   logger.Named("location"),
		now:      time.Now,
	}
}

// Capture запрашивает позицию: сначала с высокой точностью, затем, если устройство
// ответило "недоступно" или "таймаут", один раз с ослабленными параметрами.
// current: текущие значения полей; частичный адрес не затирает заполненные поля.
// Ошибка возвращается только при отмене ctx.
func (s *Service) Capture(ctx context.Context, src PositionSource, debouncer *Debouncer, current Fields) (Result, error) {
	if debouncer != nil && !debouncer.Allow() {
		metrics.LocationCaptureTotal.WithLabelValues("skipped").Inc()
		return Result{Fields: current, Skipped: true}, nil
	}

	res := Result{Fields: current}
	if src == nil {
		res.Status = s.errorStatus(s.messages.Unsupported)
		metrics.LocationCaptureTotal.WithLabelValues("unsupported").Inc()
		return res, nil
	}

	res.Progress = append(res.Progress, Status{Message: s.messages.Capturing, Kind: KindDefault})

	pos, attempts, err := s.locate(ctx, src, &res)
	res.Attempts = attempts
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if errors.Is(err, ErrUnsupported) {
			res.Status = s.errorStatus(s.messages.Unsupported)
			metrics.LocationCaptureTotal.WithLabelValues("unsupported").Inc()
			return res, nil
		}
		s.logger.Warn("failed to capture position", zap.Error(err), zap.Int("attempts", attempts))

		res.Fields.District = s.messages.Fallback
		res.Fields.Street = s.messages.Fallback
		res.Status = s.errorStatus(s.mapError(err))
		metrics.LocationCaptureTotal.WithLabelValues(outcome(err)).Inc()
		return res, nil
	}

	res.Fields.Latitude = strconv.FormatFloat(pos.Latitude, 'f', 6, 64)
	res.Fields.Longitude = strconv.FormatFloat(pos.Longitude, 'f', 6, 64)
	res.Fields.CapturedAt = s.now().UTC().Format("2006-01-02T15:04:05.000Z")
	res.Progress = append(res.Progress, Status{Message: s.messages.Resolving, Kind: KindDefault})

	lat, _ := strconv.ParseFloat(res.Fields.Latitude, 64)
	lon, _ := strconv.ParseFloat(res.Fields.Longitude, 64)

	district, street, err := s.Resolve(ctx, lat, lon)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Fields.District = s.messages.Fallback
		res.Fields.Street = s.messages.Fallback
		res.Status = s.errorStatus(s.messages.GeocodeFailed)
		metrics.LocationCaptureTotal.WithLabelValues("geocode_failed").Inc()
		return res, nil
	}

	if district != "" {
		res.Fields.District = district
	}
	if street != "" {
		res.Fields.Street = street
	}

	if district != "" && street != "" {
		res.Status = Status{Message: s.messages.Filled, Kind: KindSuccess}
		metrics.LocationCaptureTotal.WithLabelValues("filled").Inc()
		return res, nil
	}

	if strings.TrimSpace(res.Fields.District) == "" {
		res.Fields.District = s.messages.Fallback
	}
	if strings.TrimSpace(res.Fields.Street) == "" {
		res.Fields.Street = s.messages.Fallback
	}
	res.Status = s.errorStatus(s.messages.Partial)
	metrics.LocationCaptureTotal.WithLabelValues("partial").Inc()
	return res, nil
}

// Resolve только обратное геокодирование: район и улица (могут быть пустыми)
func (s *Service) Resolve(ctx context.Context, lat, lon float64) (string, string, error) {
	if s.geocoder == nil {
		return "", "", errors.New("geocoder is not configured")
	}

	addr, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("reverse geocoding failed", zap.Error(err), zap.Float64("lat", lat), zap.Float64("lon", lon))
		return "", "", err
	}
	return District(addr), Street(addr), nil
}

func (s *Service) locate(ctx context.Context, src PositionSource, res *Result) (Position, int, error) {
	var (
		pos      Position
		attempts int
	)

	retrier := retry.New("geolocation", s.logger,
		retry.WithMaxAttempts(2),
		retry.WithoutBackoff(),
		retry.WithOnRetry(func(int, error) {
			res.Progress = append(res.Progress, Status{Message: s.messages.Retrying, Kind: KindDefault})
		}),
	)

	err := retrier.Do(ctx, func(ctx context.Context) error {
		attempts = retry.AttemptFromContext(ctx)
		opts := HighAccuracy
		if attempts > 1 {
			opts = Relaxed
		}

		p, err := s.attempt(ctx, src, opts)
		if err != nil {
			return err
		}
		pos = p
		return nil
	})
	return pos, attempts, err
}

// attempt одна попытка с собственным таймаутом
func (s *Service) attempt(ctx context.Context, src PositionSource, opts PositionOptions) (Position, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	pos, err := src.CurrentPosition(attemptCtx, opts)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return Position{}, nonRetryable{err}
		}
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return Position{}, &PositionError{Code: CodeTimeout}
		}
		var pe *PositionError
		if !errors.As(err, &pe) {
			return Position{}, &PositionError{Code: CodePositionUnavailable, Message: err.Error()}
		}
		return Position{}, err
	}
	return pos, nil
}

func (s *Service) mapError(err error) string {
	var pe *PositionError
	if !errors.As(err, &pe) {
		return s.messages.Errors.Default
	}
	switch pe.Code {
	case CodePermissionDenied:
		return s.messages.Errors.Denied
	case CodePositionUnavailable:
		return s.messages.Errors.Unavailable
	case CodeTimeout:
		return s.messages.Errors.Timeout
	}
	return s.messages.Errors.Default
}

func (s *Service) errorStatus(msg string) Status {
	return Status{Message: msg, Kind: KindError}
}

type nonRetryable struct{ error }

func (e nonRetryable) Unwrap() error   { return e.error }
func (e nonRetryable) Retryable() bool { return false }

func outcome(err error) string {
	var pe *PositionError
	if errors.As(err, &pe) {
		switch pe.Code {
		case CodePermissionDenied:
			return "denied"
		case CodePositionUnavailable:
			return "unavailable"
		case CodeTimeout:
			return "timeout"
		}
	}
	return "error"
}
