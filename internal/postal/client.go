package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/internal/observability"
)

const maxResponseBytes = 1 << 20

// Lookup outcomes reported to a Recorder.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeCached      = "cached"
)

// Recorder receives lookup telemetry.
type Recorder interface {
	RecordPostalLookup(outcome string, duration time.Duration)
	SetPostalBreakerState(state float64)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder reports lookup outcomes and breaker changes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client looks codes up against the configured service. Results, including
// "no address" answers, are cached for the configured TTL. Calls go through
// a circuit breaker and are never retried.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    *gocache.Cache
	breaker  *Breaker
	recorder Recorder
	logger   *zap.Logger
}

// NewClient builds a Client from cfg.
func NewClient(cfg config.PostalConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   gocache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
		breaker: NewBreaker(
			cfg.CircuitBreaker.FailureThreshold,
			cfg.CircuitBreaker.SuccessThreshold,
			cfg.CircuitBreaker.Timeout,
		),
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Breaker exposes the client's circuit breaker.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

type cached struct {
	addr  Address
	found bool
}

// zipcloudResponse is the service's reply envelope.
type zipcloudResponse struct {
	Status  int     `json:"status"`
	Message *string `json:"message"`
	Results []struct {
		Address1 string `json:"address1"`
		Address2 string `json:"address2"`
		Address3 string `json:"address3"`
		Zipcode  string `json:"zipcode"`
	} `json:"results"`
}

// Find resolves code, which must already be normalized.
func (c *Client) Find(ctx context.Context, code string) (addr Address, err error) {
	if !codePattern.MatchString(code) {
		return Address{}, ErrMalformedCode
	}
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "postal.Find", observability.AttrPostalCode.String(code))
	defer func() { observability.EndSpanWithError(span, ignoreNotFound(err)) }()

	if v, ok := c.cache.Get(code); ok {
		entry := v.(cached)
		span.SetAttributes(observability.AttrCacheHit.Bool(true))
		c.record(OutcomeCached, start)
		c.logger.Debug("postal cache hit", zap.String("postal_code", code), zap.Bool("found", entry.found))
		if !entry.found {
			return Address{}, ErrNotFound
		}
		return entry.addr, nil
	}
	span.SetAttributes(observability.AttrCacheHit.Bool(false))

	if !c.breaker.Allow() {
		c.record(OutcomeBreakerOpen, start)
		c.logger.Warn("postal lookup skipped, circuit breaker open", zap.String("postal_code", code))
		return Address{}, fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
	}

	addr, err = c.fetch(ctx, code)
	switch {
	case err == nil:
		c.breaker.Success()
		c.cache.Set(code, cached{addr: addr, found: true}, gocache.DefaultExpiration)
		c.record(OutcomeFound, start)
	case err == ErrNotFound:
		c.breaker.Success()
		c.cache.Set(code, cached{}, gocache.DefaultExpiration)
		c.record(OutcomeNotFound, start)
	default:
		c.breaker.Failure()
		c.record(OutcomeError, start)
		c.logger.Warn("postal lookup failed", zap.String("postal_code", code), zap.Error(err))
	}
	return addr, err
}

func (c *Client) fetch(ctx context.Context, code string) (Address, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Address{}, fmt.Errorf("%w: base url: %v", ErrUnavailable, err)
	}
	q := u.Query()
	q.Set("zipcode", code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Address{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	observability.InjectTraceHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Address{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Address{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	var parsed zipcloudResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Address{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(parsed.Results) == 0 {
		return Address{}, ErrNotFound
	}
	r := parsed.Results[0]
	return Address{
		Code:       code,
		Prefecture: r.Address1,
		City:       r.Address2,
		Town:       r.Address3,
	}, nil
}

func (c *Client) record(outcome string, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordPostalLookup(outcome, time.Since(start))
	c.recorder.SetPostalBreakerState(float64(c.breaker.State()))
}

func ignoreNotFound(err error) error {
	if err == ErrNotFound {
		return nil
	}
	return err
}
