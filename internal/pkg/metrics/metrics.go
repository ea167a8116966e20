package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal количество HTTP запросов
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration длительность HTTP запросов
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReportsTotal количество отчетов по типу (pdf, email) и результату
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_submissions_total",
			Help: "Total number of report submissions by kind and status",
		},
		[]string{"kind", "status"},
	)

	// ReportDuration длительность подготовки отчета
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_duration_seconds",
			Help:    "Duration of report assembly and delivery in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"kind"},
	)

	// PDFFileSizeBytes размер сгенерированных PDF файлов
	PDFFileSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_pdf_size_bytes",
			Help:    "Size of generated PDF reports in bytes",
			Buckets: []float64{10 * 1024, 100 * 1024, 512 * 1024, 1024 * 1024, 5 * 1024 * 1024},
		},
	)

	// PDFPages количество страниц в PDF отчете
	PDFPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_pdf_pages",
			Help:    "Number of pages in generated PDF reports",
			Buckets: []float64{1, 2, 3, 4, 6},
		},
	)

	// ImageNormalizeDuration длительность нормализации изображения
	ImageNormalizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_normalize_duration_seconds",
			Help:    "Duration of image decode, downscale and JPEG re-encode",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	// MediaRejectedTotal файлы, отклоненные менеджером выбора медиа
	MediaRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_rejected_files_total",
			Help: "Files rejected by the media selection by reason",
		},
		[]string{"reason"},
	)

	// LocationCaptureTotal результаты захвата геолокации
	LocationCaptureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_capture_total",
			Help: "Location capture outcomes",
		},
		[]string{"outcome"},
	)

	// UpstreamRequestsTotal запросы к внешним API (nominatim, cloudinary, emailjs)
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests to upstream APIs",
		},
		[]string{"service", "status"},
	)

	// UpstreamRequestDuration длительность запросов к внешним API
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
)
