package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	str2duration "github.com/xhit/go-str2duration/v2"

	handler "torrentier/api"
	"torrentier/cache"
	"torrentier/logging"
	"torrentier/monitoring"
)

func main() {
	logging.InitLogger()

	redis := cache.NewRedis()
	if redis == nil {
		logging.Warn().Msg("REDIS_HOST not set, response caching disabled")
	}

	metrics := monitoring.NewMetrics()
	metrics.Register()

	addon := handler.NewAddon(redis, metrics, handler.AddonOptions{
		QbitEnabled:    os.Getenv("QBITTORRENT_ENABLE") == "true",
		ManifestSuffix: os.Getenv("MANIFEST_TITLE_SUFFIX"),
		ManifestBlurb:  os.Getenv("MANIFEST_BLURB"),
	})
	if expiration := os.Getenv("SHORT_LIVED_CACHE_EXPIRATION"); expiration != "" {
		d, err := str2duration.ParseDuration(expiration)
		if err != nil {
			logging.Error().Err(err).Str("value", expiration).Msg("invalid SHORT_LIVED_CACHE_EXPIRATION")
			os.Exit(1)
		}
		addon.SetShortLivedCacheExpiration(d)
	}

	addonMux := http.NewServeMux()
	metricsMux := http.NewServeMux()

	addon.Register(addonMux)
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		err := http.ListenAndServe(":"+envOr("METRICS_PORT", "8081"), metricsMux)
		if err != nil {
			logging.Error().Err(err).Msg("metrics server failed")
			os.Exit(1)
		}
	}()

	port := envOr("PORT", "7777")
	logging.Info().Str("port", port).Msg("torrentier listening")
	err := http.ListenAndServe(":"+port, handler.CORS(logging.HTTPLoggingMiddleware(addonMux)))
	if err != nil {
		logging.Error().Err(err).Msg("addon server failed")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
