package api

import "context"

// Client is the drip API surface. The canonical implementation lives in
// internal/client and is constructed through the root drip package; the
// interface exists so applications can substitute fakes in tests.
type Client interface {
	// KeyType returns the scope of the configured API key.
	KeyType() KeyType

	// Ping checks API health and measures round-trip latency.
	Ping(ctx context.Context) (*PingResult, error)

	// CreateCustomer creates a new customer. The server requires at least
	// one of ExternalCustomerID or OnchainAddress.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// GetCustomer fetches a customer by id.
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)

	// ListCustomers lists customers with optional filters.
	ListCustomers(ctx context.Context, opts ListCustomersOptions) (*ListCustomersResult, error)

	// GetBalance fetches a customer's USDC balance.
	GetBalance(ctx context.Context, customerID string) (*Balance, error)

	// TrackUsage records usage for tracking without billing.
	TrackUsage(ctx context.Context, params TrackUsageParams) (*TrackUsageResult, error)

	// StartRun creates a run for incremental event emission.
	StartRun(ctx context.Context, params StartRunParams) (*Run, error)

	// EmitEvent appends a single event to a running run.
	EmitEvent(ctx context.Context, params EmitEventParams) (*Event, error)

	// EndRun completes a run with a terminal status.
	EndRun(ctx context.Context, runID string, params EndRunParams) (*EndRunResult, error)

	// RecordRun records a complete run in a single call: workflow
	// resolution, run creation, batch event emission, and run completion.
	RecordRun(ctx context.Context, params RecordRunParams) (*RecordRunResult, error)
}
