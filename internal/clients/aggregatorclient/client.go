package aggregatorclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/clients/client"
	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/types"
)

const (
	submitPriceEndpoint = "/submit-price"
	healthEndpoint      = "/health"
)

// Client talks to the aggregator api on behalf of an oracle node.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        *config.FeederConfig
}

func NewClient(cfg *config.FeederConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.AggregatorURL, "/"),
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.RequestTimeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

// SubmitPrice sends one observation. A rejected observation is returned as
// a response with Success false, not as an error.
func (c *Client) SubmitPrice(ctx context.Context, req *types.SubmitPriceRequest) (*types.SubmitPriceResponse, error) {
	call := func() (*types.SubmitPriceResponse, error) {
		opts := &client.HttpClientOptions{Path: submitPriceEndpoint}
		return client.SendRequest[types.SubmitPriceRequest, types.SubmitPriceResponse](
			ctx, c, http.MethodPost, opts, req,
		)
	}

	resp, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s price: %w", req.Source, err)
	}
	return resp, nil
}

func (c *Client) CheckHealth(ctx context.Context, nodeID string) (*types.HealthResponse, error) {
	type empty struct{}
	call := func() (*types.HealthResponse, error) {
		opts := &client.HttpClientOptions{
			Path:         healthEndpoint + "?node_id=" + url.QueryEscape(nodeID),
			TemplatePath: healthEndpoint,
		}
		return client.SendRequest[empty, types.HealthResponse](ctx, c, http.MethodGet, opts, nil)
	}

	resp, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("aggregator health check failed: %w", err)
	}
	return resp, nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.FeederConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// bad requests will not get better
			code := client.StatusCode(err)
			return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("aggregator request failed, retrying")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
