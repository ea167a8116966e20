package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик кэша, метка cache: имя кэша
type Metrics struct {
	Hits   *prometheus.CounterVec
	Misses *prometheus.CounterVec
	Items  *prometheus.GaugeVec
}

var defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics создает и регистрирует метрики кэша в указанном реестре
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Number of cache hits",
		}, []string{"cache"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Number of cache misses",
		}, []string{"cache"}),
		Items: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cache_items_count",
			Help: "Number of items in cache",
		}, []string{"cache"}),
	}
}
