// Package rest implements the HTTP request pipeline shared by every client
// operation: URL assembly, auth headers, JSON serialization, response
// parsing, and classification of failures into the typed error taxonomy.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/petrijr/drip/pkg/api"
)

// Pipeline issues authenticated JSON requests against a fixed base URL.
//
// A Pipeline is immutable after construction; WithBaseURL derives a variant
// for calls that target a different base (the health check), so no shared
// state is ever swapped mid-flight.
type Pipeline struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	obs        api.Observer
}

// New creates a Pipeline. baseURL must already have trailing slashes
// stripped. timeout bounds each request end to end.
func New(baseURL, apiKey string, timeout time.Duration, obs api.Observer) *Pipeline {
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Pipeline{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		obs: obs,
	}
}

// WithBaseURL returns a Pipeline identical to p but targeting base. The
// underlying HTTP client is shared; only the URL prefix differs.
func (p *Pipeline) WithBaseURL(base string) *Pipeline {
	q := *p
	q.baseURL = base
	return &q
}

// BaseURL returns the base URL requests are issued against.
func (p *Pipeline) BaseURL() string {
	return p.baseURL
}

// Get issues a GET request; GET requests carry no body.
func (p *Pipeline) Get(ctx context.Context, path string) (Document, error) {
	return p.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with body serialized to JSON.
func (p *Pipeline) Post(ctx context.Context, path string, body any) (Document, error) {
	return p.Do(ctx, http.MethodPost, path, body)
}

// Patch issues a PATCH request with body serialized to JSON.
func (p *Pipeline) Patch(ctx context.Context, path string, body any) (Document, error) {
	return p.Do(ctx, http.MethodPatch, path, body)
}

// Do performs one request and returns the parsed response document.
//
// Behavior, in order:
//   - 204 responses become {"success": true} regardless of method.
//   - Any other response body is parsed as JSON; a parse failure is an
//     error carrying the original status and code PARSE_ERROR.
//   - Statuses outside [200,300) are classified into the typed taxonomy.
//
// No retries are attempted at this layer.
func (p *Pipeline) Do(ctx context.Context, method, path string, body any) (Document, error) {
	start := time.Now()
	p.obs.OnRequest(ctx, method, path)

	doc, status, err := p.do(ctx, method, path, body)
	p.obs.OnResponse(ctx, method, path, status, err, time.Since(start))
	return doc, err
}

func (p *Pipeline) do(ctx context.Context, method, path string, body any) (Document, int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, api.NewError("Failed to encode request body: "+err.Error(), 0, "ENCODE_ERROR")
		}
		reader = bytes.NewReader(raw)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, p.baseURL+path, nil)
	}
	if err != nil {
		return nil, 0, api.NewNetworkError("Failed to build request: " + err.Error())
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return Document{"success": true}, resp.StatusCode, nil
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, resp.StatusCode, api.NewError(
			"Failed to parse API response: "+err.Error(),
			resp.StatusCode,
			"PARSE_ERROR",
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, classifyStatus(resp.StatusCode, doc)
	}
	return doc, resp.StatusCode, nil
}

// classifyTransport maps failures where no response was obtained. Timeouts
// are distinguished from other connection failures.
func classifyTransport(err error) *api.Error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return api.NewTimeoutError("Request timed out")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return api.NewTimeoutError("Request timed out")
	}
	return api.NewNetworkError("Request failed: " + err.Error())
}

// classifyStatus maps a non-2xx status plus parsed body to a typed error.
func classifyStatus(status int, doc Document) *api.Error {
	msg := doc.Str("message", "")
	if msg == "" {
		msg = doc.Str("error", "")
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	code := doc.Str("code", "")

	switch status {
	case http.StatusUnauthorized:
		return api.NewAuthenticationError(msg)
	case http.StatusNotFound:
		return api.NewNotFoundError(msg)
	case http.StatusTooManyRequests:
		return api.NewRateLimitError(msg)
	default:
		return api.NewError(msg, status, code)
	}
}
