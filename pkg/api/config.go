package api

import "time"

// DefaultBaseURL is the production drip API endpoint, including the API
// version segment. Overridable via Config.BaseURL or the DRIP_BASE_URL
// environment variable.
const DefaultBaseURL = "https://drip-app-hlunj.ondigitalocean.app/v1"

// DefaultTimeout is the request timeout applied when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config configures a drip client.
//
// Zero values fall back as follows:
//   - APIKey: the DRIP_API_KEY environment variable. If neither is set,
//     client construction fails with a NO_API_KEY error.
//   - BaseURL: the DRIP_BASE_URL environment variable, then DefaultBaseURL.
//   - Timeout: DefaultTimeout.
type Config struct {
	// APIKey is the drip API key (sk_... for secret scope, pk_... for
	// public scope).
	APIKey string

	// BaseURL is the API base URL. Trailing slashes are stripped at
	// construction time.
	BaseURL string

	// Timeout bounds each request, including connection setup and body read.
	Timeout time.Duration
}

// KeyType classifies an API key by its prefix.
type KeyType string

const (
	KeySecret  KeyType = "secret"  // sk_live_... / sk_test_...
	KeyPublic  KeyType = "public"  // pk_live_... / pk_test_...
	KeyUnknown KeyType = "unknown" // legacy or unrecognized
)

// KeyTypeOf derives the key type from the key's prefix. The result is
// computed once at client construction and never changes afterwards.
func KeyTypeOf(apiKey string) KeyType {
	switch {
	case len(apiKey) >= 3 && apiKey[:3] == "sk_":
		return KeySecret
	case len(apiKey) >= 3 && apiKey[:3] == "pk_":
		return KeyPublic
	default:
		return KeyUnknown
	}
}
