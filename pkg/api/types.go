package api

// Metadata is an unordered string-keyed map of string values attached to
// customers, usage records, runs, and events.
//
// Richer structures must be serialized to a JSON string by the caller before
// insertion; the client does not recursively encode nested values. When the
// server returns a non-string metadata value, it is stored here as its JSON
// serialization (an accepted lossy conversion, not an error).
type Metadata map[string]string

// Clone returns a copy of m, or nil if m is empty.
func (m Metadata) Clone() Metadata {
	if len(m) == 0 {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CreateCustomerParams creates a new customer. The server requires at least
// one of ExternalCustomerID or OnchainAddress; the client does not enforce
// this locally.
type CreateCustomerParams struct {
	ExternalCustomerID string
	OnchainAddress     string
	Metadata           Metadata
}

// Customer is server-side customer state, fetched fresh on each read.
type Customer struct {
	ID                 string
	ExternalCustomerID string
	OnchainAddress     string
	Status             string // ACTIVE, LOW_BALANCE, PAUSED
	IsInternal         bool
	Metadata           Metadata
	CreatedAt          string
	UpdatedAt          string
}

// ListCustomersOptions filters a customer listing. A zero Limit means the
// server default of 100; Status, if non-empty, limits results to customers
// with that status.
type ListCustomersOptions struct {
	Limit  int
	Status string
}

// ListCustomersResult is one page of customers plus the server-reported total.
type ListCustomersResult struct {
	Customers []Customer
	Total     int
}

// Balance is a customer's USDC balance.
type Balance struct {
	CustomerID  string
	BalanceUSDC string
}

// PingResult reports API health and measured round-trip latency.
type PingResult struct {
	OK        bool
	Status    string
	LatencyMS int
	Timestamp int64
}

// TrackUsageParams records usage for tracking without billing.
type TrackUsageParams struct {
	CustomerID string // required
	Meter      string // required, e.g. "tokens", "api_calls"
	Quantity   float64

	// IdempotencyKey lets the server deduplicate retried calls. When empty,
	// a deterministic key is derived from CustomerID, Meter, and Quantity.
	IdempotencyKey string

	Units       string
	Description string
	Metadata    Metadata
}

// TrackUsageResult echoes the recorded usage fact.
type TrackUsageResult struct {
	Success      bool
	UsageEventID string
	CustomerID   string
	UsageType    string
	Quantity     float64
	IsInternal   bool
	Message      string
}

// StartRunParams creates a run for incremental event emission.
type StartRunParams struct {
	CustomerID    string // required
	WorkflowID    string // required
	ExternalRunID string
	CorrelationID string
	ParentRunID   string
	Metadata      Metadata
}

// Run is a started run as reported by the server.
type Run struct {
	ID            string
	CustomerID    string
	WorkflowID    string
	WorkflowName  string
	Status        RunStatus
	CorrelationID string
	CreatedAt     string
}

// EndRunParams completes a run with a terminal status. A run that has been
// ended must not be ended or appended to again; the server enforces this.
type EndRunParams struct {
	Status       RunStatus // required: COMPLETED, FAILED, CANCELLED, TIMEOUT
	ErrorMessage string
	ErrorCode    string
	Metadata     Metadata
}

// EndRunResult summarizes the completed run.
type EndRunResult struct {
	ID             string
	Status         RunStatus
	EndedAt        string
	DurationMS     int
	EventCount     int
	TotalCostUnits string
}

// EmitEventParams appends a single event to a running run.
type EmitEventParams struct {
	RunID       string // required
	EventType   string // required, e.g. "training.epoch"
	Quantity    float64
	Units       string
	Description string
	CostUnits   float64

	// IdempotencyKey lets the server deduplicate retried calls. When empty,
	// a deterministic key is derived from RunID, EventType, and Quantity.
	IdempotencyKey string

	Metadata Metadata
}

// Event is an accepted run event. Events are immutable once accepted;
// IsDuplicate is set by the server when the idempotency key was seen before.
type Event struct {
	ID          string
	RunID       string
	EventType   string
	Quantity    float64
	CostUnits   float64
	IsDuplicate bool
	Timestamp   string
}

// RecordRunEvent is one event in a RecordRun call.
type RecordRunEvent struct {
	EventType   string // required
	Quantity    float64
	Units       string
	Description string
	CostUnits   float64
	Metadata    Metadata
}

// RecordRunParams records a complete run in a single call: workflow
// resolution, run creation, batch event emission, and run completion.
type RecordRunParams struct {
	CustomerID    string // required
	Workflow      string // required: workflow slug or id
	Events        []RecordRunEvent
	Status        RunStatus // zero value records as COMPLETED
	ErrorMessage  string
	ErrorCode     string
	ExternalRunID string
	CorrelationID string
	Metadata      Metadata
}

// WorkflowResolution is the outcome of the resolve-or-create workflow step
// inside RecordRun. The step never fails the operation: on any listing or
// creation error the raw workflow string is used as the id (FALLBACK).
type WorkflowResolution string

const (
	// WorkflowDirect means the supplied identifier carried the server id
	// prefix and resolution was skipped.
	WorkflowDirect WorkflowResolution = "DIRECT"

	// WorkflowFound means an existing workflow matched by slug or id.
	WorkflowFound WorkflowResolution = "FOUND"

	// WorkflowCreated means no workflow matched and a new one was created.
	WorkflowCreated WorkflowResolution = "CREATED"

	// WorkflowFallback means listing or creation failed and the raw
	// identifier was used as the workflow id.
	WorkflowFallback WorkflowResolution = "FALLBACK"
)

// RecordRunWorkflow describes the workflow a recorded run was attached to.
type RecordRunWorkflow struct {
	ID         string
	Name       string
	Resolution WorkflowResolution
}

// RecordRunRun describes the run created by RecordRun.
type RecordRunRun struct {
	ID           string
	WorkflowID   string
	WorkflowName string
	Status       RunStatus
	DurationMS   int
}

// RecordRunEvents reports the server-side batch emission counts.
type RecordRunEvents struct {
	Created    int
	Duplicates int
}

// RecordRunResult is the composite result of RecordRun.
type RecordRunResult struct {
	Run            RecordRunRun
	Events         RecordRunEvents
	Workflow       RecordRunWorkflow
	TotalCostUnits string

	// Summary is a short human-readable line, e.g.
	// "[OK] Training Run: 2 events recorded (431ms)".
	Summary string
}
