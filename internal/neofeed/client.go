// Package neofeed fetches near-Earth object data from the upstream feed and
// reshapes it for the api.
package neofeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/geocoder89/staroracle/internal/breaker"
	"github.com/geocoder89/staroracle/internal/domain/neo"
	"github.com/geocoder89/staroracle/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrUpstream = errors.New("upstream feed failure")

const (
	defaultTimeout  = 30 * time.Second
	validateTimeout = 10 * time.Second
	maxBodyBytes    = 32 << 20
)

// Cache stores raw feed bodies keyed by date range.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
	// guards upstream fetches; cache hits bypass it
	Breaker breaker.Config
}

type Client struct {
	cfg    Config
	http   *http.Client
	cache  Cache
	cb     *breaker.Breaker
	prom   *observability.Prom
	logger *slog.Logger
	today  func() time.Time
}

// New builds a client. cache, prom and logger may be nil.
func New(cfg Config, cache Cache, prom *observability.Prom, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "neofeed"
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:  cache,
		cb:     breaker.New(cfg.Breaker),
		prom:   prom,
		logger: logger,
		today:  time.Now,
	}
}

// Feed returns the scored objects for the date range, highest risk first.
func (c *Client) Feed(ctx context.Context, dates neo.DateRange) (neo.Feed, error) {
	body, err := c.raw(ctx, dates)
	if err != nil {
		return neo.Feed{}, err
	}
	return Parse(body, dates)
}

// Export returns flat rows for the date range in feed order.
func (c *Client) Export(ctx context.Context, dates neo.DateRange) ([]ExportRow, error) {
	body, err := c.raw(ctx, dates)
	if err != nil {
		return nil, err
	}
	return Rows(body)
}

// ValidateKey probes the feed for today with key. A non-200 answer means the
// key is not valid; a transport failure is returned as ErrUpstream.
func (c *Client) ValidateKey(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	day := c.today().UTC().Format(DateLayout)

	res, err := c.get(ctx, neo.DateRange{Start: day, End: day}, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	return res.StatusCode == http.StatusOK, nil
}

func (c *Client) raw(ctx context.Context, dates neo.DateRange) ([]byte, error) {
	key := CacheKey(dates)

	if c.cache != nil {
		b, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.prom.ObserveFeedCache("error")
			c.logger.WarnContext(ctx, "neofeed_cache_get_failed", "key", key, "err", err)
		case ok:
			c.prom.ObserveFeedCache("hit")
			return b, nil
		default:
			c.prom.ObserveFeedCache("miss")
		}
	}

	var body []byte
	err := c.cb.Do(ctx, func(ctx context.Context) error {
		b, err := c.fetch(ctx, dates)
		body = b
		return err
	})
	if errors.Is(err, breaker.ErrOpen) {
		c.prom.ObserveFeed("circuit_open", 0)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cfg.CacheTTL); err != nil {
			c.logger.WarnContext(ctx, "neofeed_cache_set_failed", "key", key, "err", err)
		}
	}

	return body, nil
}

func (c *Client) fetch(ctx context.Context, dates neo.DateRange) ([]byte, error) {
	start := time.Now()

	res, err := c.get(ctx, dates, c.cfg.APIKey)
	if err != nil {
		c.prom.ObserveFeed("network_error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		c.prom.ObserveFeed("http_error", time.Since(start))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		c.prom.ObserveFeed("network_error", time.Since(start))
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if err := checkBody(body); err != nil {
		c.prom.ObserveFeed("parse_error", time.Since(start))
		return nil, err
	}

	c.prom.ObserveFeed("ok", time.Since(start))
	return body, nil
}

func (c *Client) get(ctx context.Context, dates neo.DateRange, apiKey string) (*http.Response, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("start_date", dates.Start)
	q.Set("end_date", dates.End)
	q.Set("api_key", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	return c.http.Do(req)
}

func CacheKey(dates neo.DateRange) string {
	return "neofeed:v1:start=" + dates.Start + ":end=" + dates.End
}
