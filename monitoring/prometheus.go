package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SearchDuration  *prometheus.HistogramVec
	SearchRequests  *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec
	ResolveErrors   *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "torrentier_search_duration_seconds",
			Help: "Duration of one source adapter search",
		}, []string{"source"}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentier_search_requests_total",
			Help: "Search requests per source adapter",
		}, []string{"source"}),
		ResolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "torrentier_resolve_duration_seconds",
			Help: "Duration of one link resolution",
		}, []string{"provider"}),
		ResolveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentier_resolve_errors_total",
			Help: "Failed link resolutions per provider",
		}, []string{"provider"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentier_cache_hits_total",
			Help: "Response cache hits",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "torrentier_cache_misses_total",
			Help: "Response cache misses",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Register() {
	prometheus.MustRegister(m.SearchDuration)
	prometheus.MustRegister(m.SearchRequests)
	prometheus.MustRegister(m.ResolveDuration)
	prometheus.MustRegister(m.ResolveErrors)
	prometheus.MustRegister(m.CacheHits)
	prometheus.MustRegister(m.CacheMisses)
}
