// Package ingest collects posts and top-level comments from the forum API.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ppiankov/brandpulse/internal/cache"
	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/util"
	"github.com/ppiankov/brandpulse/internal/worker"
)

// ErrNotAllowed is returned for URLs disallowed by robots.txt
var ErrNotAllowed = errors.New("disallowed by robots.txt")

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

const (
	maxFetchAttempts = 3
	baseBackoff      = 2 * time.Second
	maxBackoff       = 30 * time.Second
)

// StatusError is a non-2xx response
type StatusError struct {
	Code       int
	Status     string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher performs rate-limited, cached GET requests against the forum API
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	log        logger.Logger
}

// NewFetcher builds a fetcher from the ingest configuration. A nil cache disables caching.
func NewFetcher(cfg model.IngestConfig, c cache.Cache, log logger.Logger) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		cache:      c,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		log:        log,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(client, cfg.UserAgent, cfg.Timeout)
	}
	return f
}

// Fetch performs one GET. Cached bodies are returned without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.Key("http", rawURL)
	if body, ok := f.cache.Get(key); ok {
		f.log.Debug("cache hit", logger.String("url", rawURL))
		return body, nil
	}

	var delay time.Duration
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrNotAllowed)
		}
		delay = crawlDelay
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, delay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Status:     resp.Status,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(key, body, 0); err != nil {
		f.log.Warn("cache write failed", logger.String("url", rawURL), logger.Error(err))
	}
	return body, nil
}

// FetchWithRetry retries rate limiting, server errors and transport failures
// with exponential backoff. Other failures return immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt, lastErr)
			f.log.Debug("retrying fetch",
				logger.String("url", rawURL),
				logger.Int("attempt", attempt+1),
				logger.Duration("backoff", wait),
				logger.Error(lastErr),
			)
			fetchSleepFunc(wait)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		body, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxFetchAttempts, lastErr)
}

// FetchJSON fetches rawURL with retries and decodes the body into v
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		f.invalidate(rawURL)
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (f *Fetcher) invalidate(rawURL string) {
	_ = f.cache.Delete(cache.Key("http", rawURL))
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("read body: response exceeds %d bytes", maxBytes)
	}
	return body, nil
}

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) && !isTimeout(err) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func backoff(attempt int, lastErr error) time.Duration {
	var statusErr *StatusError
	if errors.As(lastErr, &statusErr) && statusErr.RetryAfter > 0 {
		return min(statusErr.RetryAfter, maxBackoff)
	}
	return min(baseBackoff<<(attempt-1), maxBackoff)
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
