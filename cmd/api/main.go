package main

import (
	"context"
	"os"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/api"
	"github.com/Diego-Cesare/fala-icara/internal/config"
	"github.com/Diego-Cesare/fala-icara/internal/domain/email"
	"github.com/Diego-Cesare/fala-icara/internal/domain/location"
	"github.com/Diego-Cesare/fala-icara/internal/domain/report"
	"github.com/Diego-Cesare/fala-icara/internal/domain/session"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/cloudinary"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/emailjs"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/logger"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/nominatim"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/retry"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/statistics"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/tracing"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/upstream"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env необязателен, в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	if err := logger.Init(logLevel); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	shutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: os.Getenv("VERSION"),
		Environment:    cfg.Tracing.Environment,
		CollectorURL:   cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(err))
		}
	}()

	stats := statistics.GetInstance()
	if cfg.Postgres.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := statistics.NewPostgresDB(ctx, cfg.Postgres.DSN())
		cancel()
		if err != nil {
			// статистика остается в памяти
			logger.Warn("Statistics database unavailable", zap.Error(err))
		} else {
			stats.SetDB(db)
			defer db.Close()
			logger.Info("Statistics database connected", zap.String("host", cfg.Postgres.Host))
		}
	}

	// Внешние сервисы
	nominatimGuard := upstream.NewGuardFromEnv("nominatim", logger.Log, retry.DefaultConfig())
	cloudinaryGuard := upstream.NewGuardFromEnv("cloudinary", logger.Log, retry.DefaultConfig())
	// отправка письма не идемпотентна, повтор только по явной настройке EMAILJS_RETRY_MAX_ATTEMPTS
	emailDefaults := retry.DefaultConfig()
	emailDefaults.MaxAttempts = 1
	emailjsGuard := upstream.NewGuardFromEnv("emailjs", logger.Log, emailDefaults)

	geocoder := nominatim.NewClient(nominatim.Config{
		URL:       cfg.Nominatim.URL,
		UserAgent: cfg.Nominatim.UserAgent,
		Timeout:   cfg.Nominatim.Timeout,
		CacheTTL:  cfg.Nominatim.CacheTTL,
	}, nominatimGuard, logger.Log)
	defer geocoder.Close()

	uploader := cloudinary.NewClient(cloudinary.Config{
		APIURL:       cfg.Cloudinary.APIURL,
		CloudName:    cfg.Cloudinary.CloudName,
		UploadPreset: cfg.Cloudinary.UploadPreset,
		Timeout:      cfg.Cloudinary.Timeout,
	}, cloudinaryGuard, logger.Log)

	sender := emailjs.NewClient(emailjs.Config{
		APIURL:     cfg.EmailJS.APIURL,
		PublicKey:  cfg.EmailJS.PublicKey,
		PrivateKey: cfg.EmailJS.PrivateKey,
		ServiceID:  cfg.EmailJS.ServiceID,
		TemplateID: cfg.EmailJS.TemplateID,
		Timeout:    cfg.EmailJS.Timeout,
	}, emailjsGuard, logger.Log)
	logger.Info("Upstream clients created",
		zap.String("nominatim_url", cfg.Nominatim.URL),
		zap.String("cloudinary_cloud", cfg.Cloudinary.CloudName))

	// Доменные сервисы
	locationService := location.NewService(geocoder, cfg.Messages, logger.Named("location"))

	tz, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		logger.Fatal("Failed to load report timezone", zap.Error(err))
	}
	assembler := report.NewAssembler(tz, logger.Named("report"))

	photoStrategy, err := email.ParsePhotoStrategy(cfg.Email.PhotoStrategy)
	if err != nil {
		logger.Fatal("Invalid email photo strategy", zap.Error(err))
	}
	pipeline := email.NewPipeline(email.Options{
		Strategy:  email.Strategy{Photo: photoStrategy, Geocode: cfg.Email.Geocode},
		Sender:    sender,
		Uploader:  uploader,
		Resolver:  locationService,
		Recipient: cfg.EmailJS.RecipientEmail,
		Messages:  cfg.Messages.Email,
		Logger:    logger.Named("email"),
	})
	if cfg.EmailJS.RecipientEmail == "" {
		logger.Warn("REPORT_RECIPIENT_EMAIL is empty, template default recipient will be used")
	}
	logger.Info("Report services created",
		zap.String("timezone", cfg.Report.Timezone),
		zap.String("photo_strategy", string(photoStrategy)),
		zap.Bool("geocode", cfg.Email.Geocode))

	sessions := session.NewStore(cfg.Session.TTL, cfg.Messages, logger.Named("session"))
	defer sessions.Close()

	handlers := api.NewHandlers(api.Deps{
		Sessions:   sessions,
		Location:   locationService,
		Assembler:  assembler,
		Email:      pipeline,
		Messages:   cfg.Messages,
		Statistics: stats,
		Guards:     []*upstream.Guard{nominatimGuard, cloudinaryGuard, emailjsGuard},
	})
	logger.Info("Handlers initialized")

	server := api.NewServer(handlers, stats, logger.Log)
	server.SetupRoutes()
	logger.Info("Server configured and routes set up")

	addr := ":" + cfg.Port
	logger.Info("Starting server", zap.String("address", addr))
	if err := server.Start(addr); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
