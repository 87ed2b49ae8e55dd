// Package client implements the drip API operations on top of the request
// pipeline in internal/rest. The public entry points live in the root drip
// package, which re-exports the types from pkg/api.
package client

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/petrijr/drip/internal/rest"
	"github.com/petrijr/drip/pkg/api"
)

const (
	envAPIKey  = "DRIP_API_KEY"
	envBaseURL = "DRIP_BASE_URL"
)

// Client talks to the drip usage-metering and execution-ledger API. It is
// synchronous: every operation blocks until the round trip (or timeout)
// completes, and no call starts a second request before the first finishes.
//
// Client is safe for concurrent use; all fields are immutable after New.
type Client struct {
	pipe    *rest.Pipeline
	obs     api.Observer
	keyType api.KeyType
}

// Ensure Client implements the api.Client surface.
var _ api.Client = (*Client)(nil)

// New constructs a Client from cfg, applying environment fallbacks for the
// API key (DRIP_API_KEY) and base URL (DRIP_BASE_URL, then the production
// default). A missing API key fails here, not at the first call.
func New(cfg api.Config, obs api.Observer) (*Client, error) {
	if obs == nil {
		obs = api.NoopObserver{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		return nil, api.NewConfigError(
			"Drip API key is required. Either pass Config.APIKey or set DRIP_API_KEY.",
			"NO_API_KEY",
		)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv(envBaseURL)
	}
	if baseURL == "" {
		baseURL = api.DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}

	return &Client{
		pipe:    rest.New(baseURL, apiKey, timeout, obs),
		obs:     obs,
		keyType: api.KeyTypeOf(apiKey),
	}, nil
}

// KeyType returns the scope of the configured API key, derived once at
// construction from the key prefix.
func (c *Client) KeyType() api.KeyType {
	return c.keyType
}

// Ping checks API health and measures round-trip latency.
//
// The health endpoint lives at the server root, not under the API version
// segment, so the call targets a per-call derived base URL with a trailing
// "/v1" stripped. The client's own base URL is never touched.
func (c *Client) Ping(ctx context.Context) (*api.PingResult, error) {
	healthBase := strings.TrimSuffix(c.pipe.BaseURL(), "/v1")

	start := time.Now()
	doc, err := c.pipe.WithBaseURL(healthBase).Get(ctx, "/health")
	if err != nil {
		return nil, err
	}

	status := doc.Str("status", "healthy")
	return &api.PingResult{
		OK:        status == "healthy",
		Status:    status,
		LatencyMS: int(time.Since(start).Milliseconds()),
		Timestamp: int64(doc.Float("timestamp", float64(time.Now().UnixMilli()))),
	}, nil
}
