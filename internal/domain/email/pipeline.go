// Package email отправляет обращение по почте: проверка формы, адрес,
// подготовка фото и вызов почтового сервиса.
package email

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/form"
	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/imaging"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/metrics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MinDescriptionLength минимальная длина описания после обрезки пробелов
const MinDescriptionLength = 10

// Sender отправляет письмо с плоским набором параметров шаблона
type Sender interface {
	Send(ctx context.Context, params map[string]string) error
}

// Uploader загружает изображение и возвращает публичный URL
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// Resolver возвращает район и улицу по координатам
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (district, street string, err error)
}

// Result итог успешной отправки
type Result struct {
	Payload  map[string]string `json:"-"`
	Message  string            `json:"message"`
	Progress []string          `json:"progress"`
	Duration time.Duration     `json:"-"`
}

// Pipeline email отправка обращения
type Pipeline struct {
	strategy  Strategy
	sender    Sender
	uploader  Uploader
	resolver  Resolver
	recipient string
	messages  config.EmailMessages
	logger    *zap.Logger
}

// Options зависимости пайплайна; Uploader и Resolver нужны только для соответствующих стратегий
type Options struct {
	Strategy  Strategy
	Sender    Sender
	Uploader  Uploader
	Resolver  Resolver
	Recipient string
	Messages  config.EmailMessages
	Logger    *zap.Logger
}

// NewPipeline создает пайплайн
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		strategy:  opts.Strategy,
		sender:    opts.Sender,
		uploader:  opts.Uploader,
		resolver:  opts.Resolver,
		recipient: opts.Recipient,
		messages:  opts.Messages,
		logger:    logger.Named("email"),
	}
}

// Strategy текущая стратегия
func (p *Pipeline) Strategy() Strategy {
	return p.strategy
}

// Validate проверяет обязательные поля
func (p *Pipeline) Validate(snap form.Snapshot) error {
	snap = snap.Trimmed()
	var fields []FieldError

	if snap.Type == "" {
		fields = append(fields, FieldError{Field: "issue_type", Message: p.messages.Validation.IssueTypeRequired})
	}
	switch n := utf8.RuneCountInString(snap.Description); {
	case n == 0:
		fields = append(fields, FieldError{Field: "description", Message: p.messages.Validation.DescriptionRequired})
	case n < MinDescriptionLength:
		fields = append(fields, FieldError{Field: "description", Message: p.messages.Validation.DescriptionMinLength})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Submit проверяет форму и отправляет письмо. photo может быть nil.
func (p *Pipeline) Submit(ctx context.Context, snap form.Snapshot, photo *media.File) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "email.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("email.photo_strategy", string(p.strategy.Photo)),
		attribute.Bool("email.geocode", p.strategy.Geocode),
		attribute.Bool("email.has_photo", photo != nil),
	)

	snap = snap.Trimmed()
	if err := p.Validate(snap); err != nil {
		metrics.ReportsTotal.WithLabelValues("email", "validation").Inc()
		tracing.RecordError(ctx, err)
		return nil, err
	}

	res := &Result{}
	payload := map[string]string{
		"issue_type":  snap.Type,
		"description": snap.Description,
		"name":        snap.Name,
		"phone":       snap.Phone,
		"to_email":    p.recipient,
	}
	p.locate(ctx, snap, payload, res)

	if err := p.attachPhoto(ctx, photo, payload, res); err != nil {
		p.logger.Error("failed to prepare photo", zap.Error(err))
		return nil, p.fail(ctx, start, err)
	}

	res.Progress = append(res.Progress, p.messages.Sending)
	if p.sender == nil {
		return nil, p.fail(ctx, start, errors.New("email sender is not configured"))
	}
	if err := p.sender.Send(ctx, payload); err != nil {
		p.logger.Error("failed to send report email", zap.Error(err))
		return nil, p.fail(ctx, start, err)
	}

	res.Payload = payload
	res.Message = p.messages.Success
	res.Duration = time.Since(start)

	metrics.ReportsTotal.WithLabelValues("email", "success").Inc()
	metrics.ReportDuration.WithLabelValues("email").Observe(res.Duration.Seconds())
	p.logger.Info("report email sent",
		zap.String("issue_type", snap.Type),
		zap.Bool("with_photo", payload["photo_url"] != "" || payload["photo_base64"] != ""),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// locate заполняет location, district, street и map_link
func (p *Pipeline) locate(ctx context.Context, snap form.Snapshot, payload map[string]string, res *Result) {
	district, street := snap.District, snap.Street
	location := snap.Location

	lat, lon, ok := snap.Coordinates()
	if ok {
		payload["map_link"] = snap.MapLink()
		location = fmt.Sprintf("%.5f, %.5f", lat, lon)

		if p.strategy.Geocode && p.resolver != nil {
			res.Progress = append(res.Progress, p.messages.Geolocating)
			d, s, err := p.resolver.Resolve(ctx, lat, lon)
			switch {
			case err != nil:
				p.logger.Warn("geocoding failed, using raw coordinates", zap.Error(err))
				res.Progress = append(res.Progress, p.messages.GeolocateError)
			default:
				if district == "" {
					district = d
				}
				if street == "" {
					street = s
				}
				if addr := joinNonEmpty(", ", s, d); addr != "" {
					location = addr
				}
				res.Progress = append(res.Progress, p.messages.GeolocateSuccess)
			}
		}
	} else if location == "" {
		location = joinNonEmpty(", ", street, district)
	}

	payload["location"] = location
	payload["district"] = district
	payload["street"] = street
}

// attachPhoto готовит фото по стратегии
func (p *Pipeline) attachPhoto(ctx context.Context, photo *media.File, payload map[string]string, res *Result) error {
	if photo == nil || len(photo.Data) == 0 || p.strategy.Photo == PhotoNone {
		return nil
	}

	img, err := imaging.Normalize(photo.Data, imaging.MaxDimensionEmail)
	if err != nil {
		return fmt.Errorf("normalize photo %q: %w", photo.Name, err)
	}

	switch p.strategy.Photo {
	case PhotoInline:
		payload["photo_base64"] = img.DataURL()
	case PhotoHosted:
		if p.uploader == nil {
			return errors.New("image uploader is not configured")
		}
		res.Progress = append(res.Progress, p.messages.UploadingImage)
		url, err := p.uploader.Upload(ctx, jpegName(photo.Name), img.Data)
		if err != nil {
			return fmt.Errorf("upload photo: %w", err)
		}
		payload["photo_url"] = url
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, start time.Time, err error) error {
	metrics.ReportsTotal.WithLabelValues("email", "failed").Inc()
	metrics.ReportDuration.WithLabelValues("email").Observe(time.Since(start).Seconds())
	tracing.RecordError(ctx, err)
	return fmt.Errorf("%w: %w", ErrSendFailed, err)
}

func jpegName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "foto"
	}
	return base + ".jpg"
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
