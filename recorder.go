package drip

import (
	"context"

	"github.com/petrijr/drip/pkg/api"
)

// RunRecorder provides a fluent API for recording runs:
//
//	rec := drip.NewRecorder("training-run").
//	    Customer(customer.ID).
//	    Event("training.epoch", 50, "epochs").
//	    Event("training.tokens", 2500000, "tokens")
//
//	result, err := rec.Record(ctx, client)
//
// The zero terminal status records the run as COMPLETED; use Failed to
// record a failure with an error message and code.
type RunRecorder struct {
	params api.RecordRunParams
}

// NewRecorder creates a recorder for the given workflow slug or id.
func NewRecorder(workflow string) *RunRecorder {
	if workflow == "" {
		panic("drip: workflow must not be empty")
	}
	return &RunRecorder{
		params: api.RecordRunParams{
			Workflow: workflow,
		},
	}
}

// Customer sets the customer the run is attributed to.
func (r *RunRecorder) Customer(customerID string) *RunRecorder {
	r.params.CustomerID = customerID
	return r
}

// Event appends an event with a quantity and units.
func (r *RunRecorder) Event(eventType string, quantity float64, units string) *RunRecorder {
	r.params.Events = append(r.params.Events, api.RecordRunEvent{
		EventType: eventType,
		Quantity:  quantity,
		Units:     units,
	})
	return r
}

// AddEvent appends a fully specified event.
func (r *RunRecorder) AddEvent(evt RecordRunEvent) *RunRecorder {
	r.params.Events = append(r.params.Events, evt)
	return r
}

// Status sets the terminal status of the run.
func (r *RunRecorder) Status(status RunStatus) *RunRecorder {
	r.params.Status = status
	return r
}

// Failed marks the run as FAILED with an error message and machine code.
func (r *RunRecorder) Failed(message, code string) *RunRecorder {
	r.params.Status = api.RunFailed
	r.params.ErrorMessage = message
	r.params.ErrorCode = code
	return r
}

// ExternalRunID sets the caller-side run identifier. When set, batch event
// idempotency keys are derived from it instead of the server-assigned run
// id, so retries of the same logical run deduplicate.
func (r *RunRecorder) ExternalRunID(id string) *RunRecorder {
	r.params.ExternalRunID = id
	return r
}

// CorrelationID sets an identifier for correlating the run with external
// systems.
func (r *RunRecorder) CorrelationID(id string) *RunRecorder {
	r.params.CorrelationID = id
	return r
}

// Meta adds one metadata entry to the run.
func (r *RunRecorder) Meta(key, value string) *RunRecorder {
	if r.params.Metadata == nil {
		r.params.Metadata = api.Metadata{}
	}
	r.params.Metadata[key] = value
	return r
}

// Params returns the accumulated RecordRunParams.
// Typically used when interacting with lower-level APIs.
func (r *RunRecorder) Params() RecordRunParams {
	p := r.params
	p.Metadata = r.params.Metadata.Clone()
	p.Events = append([]api.RecordRunEvent(nil), r.params.Events...)
	return p
}

// Record submits the accumulated run through c.RecordRun.
func (r *RunRecorder) Record(ctx context.Context, c Client) (*RecordRunResult, error) {
	return c.RecordRun(ctx, r.Params())
}
