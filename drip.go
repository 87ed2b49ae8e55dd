package drip

import (
	"github.com/petrijr/drip/internal/client"
	"github.com/petrijr/drip/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Client               = api.Client
	Config               = api.Config
	KeyType              = api.KeyType
	Metadata             = api.Metadata
	RunStatus            = api.RunStatus
	Error                = api.Error
	ErrorKind            = api.ErrorKind
	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	CreateCustomerParams = api.CreateCustomerParams
	Customer             = api.Customer
	ListCustomersOptions = api.ListCustomersOptions
	ListCustomersResult  = api.ListCustomersResult
	Balance              = api.Balance
	PingResult           = api.PingResult
	TrackUsageParams     = api.TrackUsageParams
	TrackUsageResult     = api.TrackUsageResult
	StartRunParams       = api.StartRunParams
	Run                  = api.Run
	EndRunParams         = api.EndRunParams
	EndRunResult         = api.EndRunResult
	EmitEventParams      = api.EmitEventParams
	Event                = api.Event
	RecordRunEvent       = api.RecordRunEvent
	RecordRunParams      = api.RecordRunParams
	RecordRunResult      = api.RecordRunResult
	RecordRunWorkflow    = api.RecordRunWorkflow
	WorkflowResolution   = api.WorkflowResolution
)

// Re-export run status values for convenience.

const (
	RunPending   = api.RunPending
	RunRunning   = api.RunRunning
	RunCompleted = api.RunCompleted
	RunFailed    = api.RunFailed
	RunCancelled = api.RunCancelled
	RunTimeout   = api.RunTimeout
)

// Re-export key scopes.

const (
	KeySecret  = api.KeySecret
	KeyPublic  = api.KeyPublic
	KeyUnknown = api.KeyUnknown
)

// Re-export workflow resolution outcomes.

const (
	WorkflowDirect   = api.WorkflowDirect
	WorkflowFound    = api.WorkflowFound
	WorkflowCreated  = api.WorkflowCreated
	WorkflowFallback = api.WorkflowFallback
)

// Re-export configuration defaults.

const (
	DefaultBaseURL = api.DefaultBaseURL
	DefaultTimeout = api.DefaultTimeout
)

// Re-export error helpers.

var (
	RunStatusFromString  = api.RunStatusFromString
	IsAuthentication     = api.IsAuthentication
	IsNotFound           = api.IsNotFound
	IsRateLimit          = api.IsRateLimit
	IsTimeout            = api.IsTimeout
	IsNetwork            = api.IsNetwork
	NewCompositeObserver = api.NewCompositeObserver
	NewLoggingObserver   = api.NewLoggingObserver
)

// Client constructors
// These wrap the internal/client package so external callers never need to
// import internal packages.

// New constructs a Client from cfg. The API key falls back to DRIP_API_KEY
// and the base URL to DRIP_BASE_URL, then to DefaultBaseURL. A missing API
// key is a construction-time error with code NO_API_KEY.
func New(cfg Config) (Client, error) {
	return client.New(cfg, nil)
}

// NewWithObserver is like New but attaches an Observer that receives
// request and run lifecycle callbacks.
func NewWithObserver(cfg Config, obs Observer) (Client, error) {
	return client.New(cfg, obs)
}
