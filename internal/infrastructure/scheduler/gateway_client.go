package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// CronSecretHeader carries the shared cron secret
const CronSecretHeader = "x-cron-secret"

// BatchItem is one integration outcome reported by the gateway
type BatchItem struct {
	ID           string `json:"id"`
	SyncedOrders *int   `json:"synced_orders,omitempty"`
	SyncedDays   *int   `json:"synced_days,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchResult is the gateway answer to a cron trigger
type BatchResult struct {
	Synced []BatchItem `json:"synced"`
}

// Failed counts the integrations that reported an error
func (r *BatchResult) Failed() int {
	n := 0
	for _, item := range r.Synced {
		if item.Error != "" {
			n++
		}
	}
	return n
}

// GatewayClient posts cron triggers to the sync gateway
type GatewayClient struct {
	http   *resty.Client
	url    string
	secret string
}

// NewGatewayClient creates a client for the gateway at url
func NewGatewayClient(url, secret string, timeout time.Duration) *GatewayClient {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "storesync-cron/1.0")
	return &GatewayClient{http: client, url: url, secret: secret}
}

// TriggerAll asks the gateway to sync every integration
func (g *GatewayClient) TriggerAll(ctx context.Context) (*BatchResult, error) {
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader(CronSecretHeader, g.secret).
		SetBody(map[string]any{}).
		Post(g.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, resp.StatusCode(), resp.String())
	}

	var result BatchResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &result, nil
}
