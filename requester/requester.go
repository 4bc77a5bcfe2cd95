package requester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"torrentier/cache"
	"torrentier/logging"
	"torrentier/monitoring"
)

const (
	cacheKey = "shortLivedCache"
)

type Requester struct {
	c                         *cache.Redis
	httpClient                *http.Client
	shortLivedCacheExpiration time.Duration
	metrics                   *monitoring.Metrics
}

func NewRequester(c *cache.Redis) *Requester {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}

	return &Requester{httpClient: httpClient, c: c, shortLivedCacheExpiration: 5 * time.Minute}
}

func (r *Requester) SetShortLivedCacheExpiration(expiration time.Duration) {
	r.shortLivedCacheExpiration = expiration
}

// SetMetrics enables cache hit/miss counters on JSON requests.
func (r *Requester) SetMetrics(m *monitoring.Metrics) {
	r.metrics = m
}

// SpoofBrowserHeaders adds browser-like headers to spoof a real browser.
func SpoofBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.8,en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
}

// GetBytes issues a GET and returns the raw body. No caching; used for
// torrent file downloads and other one-shot fetches.
func (r *Requester) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	SpoofBrowserHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request for url %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for url %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// GetJSON issues a GET and decodes the body into out. Bodies of cacheable
// requests are kept in the short-lived cache so repeated player refreshes do
// not hammer the trackers.
func (r *Requester) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	key := fmt.Sprintf("%s:%s", cacheKey, url)
	if body, err := r.c.Get(ctx, key); err == nil {
		logging.Debug().Msg("Returning from short-lived cache")
		if r.metrics != nil {
			r.metrics.CacheHits.WithLabelValues("short_lived").Inc()
		}
		return json.Unmarshal(body, out)
	}
	if r.metrics != nil {
		r.metrics.CacheMisses.WithLabelValues("short_lived").Inc()
	}

	body, err := r.GetBytes(ctx, url, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response for url %s: %w", url, err)
	}

	if err := r.c.SetWithExpiration(ctx, key, body, r.shortLivedCacheExpiration); err != nil && err != cache.ErrDisabled {
		logging.Error().Err(err).Msg("Failed to save response to cache")
	}
	return nil
}
