package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/clients/client"
	"github.com/oraclevm/oracle-vm/internal/config"
)

const (
	Binance  = "binance"
	Coinbase = "coinbase"
	Kraken   = "kraken"
)

const (
	lowPriceWarning  = 1_000.0
	highPriceWarning = 1_000_000.0
)

var (
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidResponse = errors.New("invalid exchange response")
)

// Quote is one BTC/USD price read from an exchange. Timestamp is the unix
// time the quote was fetched, not the candle time.
type Quote struct {
	Price     float64
	Timestamp int64
	Source    string
}

type Client interface {
	Name() string
	FetchPrice(ctx context.Context) (*Quote, error)
}

type Option func(*baseClient)

// WithBaseURL points the client at a different host, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(c *baseClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *baseClient) {
		c.now = now
	}
}

// New returns the client for the named exchange.
func New(name string, cfg *config.FeederConfig, opts ...Option) (Client, error) {
	switch strings.ToLower(name) {
	case Binance:
		return NewBinanceClient(cfg, opts...), nil
	case Coinbase:
		return NewCoinbaseClient(cfg, opts...), nil
	case Kraken:
		return NewKrakenClient(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q", name)
	}
}

// baseClient carries what every exchange adapter shares: the http plumbing
// the generic client package needs, and the retry policy.
type baseClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	cfg        *config.FeederConfig
	now        func() time.Time
}

func newBaseClient(name, baseURL string, cfg *config.FeederConfig, opts ...Option) *baseClient {
	c := &baseClient{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    cfg.RequestTimeout,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *baseClient) Name() string {
	return c.name
}

func (c *baseClient) GetBaseURL() string {
	return c.baseURL
}

func (c *baseClient) GetDefaultRequestTimeout() time.Duration {
	return c.timeout
}

func (c *baseClient) GetHttpClient() *http.Client {
	return c.httpClient
}

// quote validates price and stamps it with the current time.
func (c *baseClient) quote(ctx context.Context, price float64) (*Quote, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %v", ErrInvalidPrice, price)
	}
	if price < lowPriceWarning {
		log.Ctx(ctx).Warn().Str("exchange", c.name).Float64("price", price).Msg("unusually low BTC price")
	}
	if price > highPriceWarning {
		log.Ctx(ctx).Warn().Str("exchange", c.name).Float64("price", price).Msg("unusually high BTC price")
	}

	return &Quote{
		Price:     price,
		Timestamp: c.now().Unix(),
		Source:    c.name,
	}, nil
}

// translateError replaces an http status error with a readable message for
// the exchange while keeping the status available to errors.As.
func (c *baseClient) translateError(err error) error {
	var httpErr *client.HttpError
	if !errors.As(err, &httpErr) {
		return err
	}

	var msg string
	switch code := httpErr.StatusCode; {
	case code == http.StatusBadRequest:
		msg = "bad request, check API parameters"
	case code == http.StatusUnauthorized:
		msg = "unauthorized"
	case code == http.StatusForbidden:
		msg = "forbidden, access denied"
	case code == http.StatusNotFound:
		msg = "not found, check trading pair"
	case code == http.StatusTooManyRequests:
		msg = "rate limit exceeded"
	case code >= 500 && code <= 599:
		msg = "server error, try again later"
	default:
		msg = fmt.Sprintf("http error %d", code)
	}
	return fmt.Errorf("%s %s: %w", c.name, msg, err)
}

func shouldRetry(err error) bool {
	if errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *client.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

func clientCallWithRetry[T any](
	ctx context.Context,
	name string,
	call retry.RetryableFuncWithData[T],
	cfg *config.FeederConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(shouldRetry),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().
				Str("exchange", name).
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to fetch price, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// fetchWithRetry runs fetch under the retry policy and translates its error.
func (c *baseClient) fetchWithRetry(ctx context.Context, fetch func() (float64, error)) (*Quote, error) {
	call := func() (*Quote, error) {
		price, err := fetch()
		if err != nil {
			return nil, c.translateError(err)
		}
		return c.quote(ctx, price)
	}

	q, err := clientCallWithRetry(ctx, c.name, call, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch BTC price from %s: %w", c.name, err)
	}

	log.Ctx(ctx).Debug().
		Str("exchange", c.name).
		Float64("price", q.Price).
		Msg("fetched BTC price")
	return q, nil
}

// previousMinute returns the bounds of the last fully closed minute.
func previousMinute(now time.Time) (start, end time.Time) {
	end = now.UTC().Truncate(time.Minute)
	return end.Add(-time.Minute), end
}
