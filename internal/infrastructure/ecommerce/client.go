package ecommerce

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/storesync/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from a platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxErrorBodyInError caps how much of an error response is echoed into the error message
const maxErrorBodyInError = 512

// platformClient wraps the resty client shared by the adapters.
// Retries are disabled: a failed page fails the whole sync.
type platformClient struct {
	http *resty.Client
	rps  float64
}

// pageResponse is one raw page returned by a platform
type pageResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func newPlatformClient(cfg *Config) *platformClient {
	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent)
	return &platformClient{http: client, rps: cfg.RequestsPerSecond}
}

// newPacer returns a limiter for the pages of one sync
func (c *platformClient) newPacer() *rate.Limiter {
	if c.rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(c.rps), 1)
}

// get performs one paced GET. Transport failures and timeouts map to
// ErrPlatformUnavailable, HTTP status >= 400 maps to ErrPlatformRequestFailed.
func (c *platformClient) get(ctx context.Context, pacer *rate.Limiter, url string, prepare func(*resty.Request)) (*pageResponse, error) {
	if err := pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", integration.ErrPlatformUnavailable, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: HTTP %d: %s", integration.ErrPlatformRequestFailed, resp.StatusCode(), truncate(body))
	}

	return &pageResponse{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
	}, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyInError {
		return string(body[:maxErrorBodyInError]) + "..."
	}
	return string(body)
}
