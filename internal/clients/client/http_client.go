package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/observability/metrics"
)

// maxErrorBody bounds how much of a failed response is kept in an error.
const maxErrorBody = 512

type HttpClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	Timeout time.Duration
	Path    string
	// TemplatePath labels metrics without per-request query values
	TemplatePath string
	Headers      map[string]string
}

// HttpError is returned for any non 2xx response.
type HttpError struct {
	StatusCode int
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *HttpError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// StatusCode extracts the status of an HttpError, or 0.
func StatusCode(err error) int {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// SendRequest sends input as JSON (when non-nil) and decodes a JSON R from
// a 2xx response.
func SendRequest[I any, R any](
	ctx context.Context, client HttpClient, method string, opts *HttpClientOptions, input *I,
) (*R, error) {
	timeout := client.GetDefaultRequestTimeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if input != nil {
		raw, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	url := client.GetBaseURL() + opts.Path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	templatePath := opts.TemplatePath
	if templatePath == "" {
		templatePath = opts.Path
	}
	timer := metrics.StartClientRequestDurationTimer(client.GetBaseURL(), method, templatePath)

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		timer(0)
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()
	timer(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Ctx(ctx).Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("http request returned an error status")
		return nil, &HttpError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	var result R
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return &result, nil
}
