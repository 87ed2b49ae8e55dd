package client

import (
	"context"

	"github.com/petrijr/drip/internal/rest"
	"github.com/petrijr/drip/pkg/api"
)

type startRunBody struct {
	CustomerID    string       `json:"customerId"`
	WorkflowID    string       `json:"workflowId"`
	ExternalRunID string       `json:"externalRunId,omitempty"`
	CorrelationID string       `json:"correlationId,omitempty"`
	ParentRunID   string       `json:"parentRunId,omitempty"`
	Metadata      api.Metadata `json:"metadata,omitempty"`
}

type endRunBody struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	ErrorCode    string       `json:"errorCode,omitempty"`
	Metadata     api.Metadata `json:"metadata,omitempty"`
}

type emitEventBody struct {
	RunID          string       `json:"runId"`
	EventType      string       `json:"eventType"`
	IdempotencyKey string       `json:"idempotencyKey"`
	Quantity       float64      `json:"quantity,omitempty"`
	Units          string       `json:"units,omitempty"`
	Description    string       `json:"description,omitempty"`
	CostUnits      float64      `json:"costUnits,omitempty"`
	Metadata       api.Metadata `json:"metadata,omitempty"`
}

// StartRun creates a run for the given customer and workflow. Use EmitEvent
// to add events, then EndRun to complete it.
func (c *Client) StartRun(ctx context.Context, params api.StartRunParams) (*api.Run, error) {
	doc, err := c.pipe.Post(ctx, "/runs", startRunBody{
		CustomerID:    params.CustomerID,
		WorkflowID:    params.WorkflowID,
		ExternalRunID: params.ExternalRunID,
		CorrelationID: params.CorrelationID,
		ParentRunID:   params.ParentRunID,
		Metadata:      params.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &api.Run{
		ID:            doc.Str("id", ""),
		CustomerID:    doc.Str("customerId", ""),
		WorkflowID:    doc.Str("workflowId", ""),
		WorkflowName:  doc.Str("workflowName", ""),
		Status:        api.RunStatusFromString(doc.Str("status", "")),
		CorrelationID: doc.Str("correlationId", ""),
		CreatedAt:     doc.Str("createdAt", ""),
	}, nil
}

// EndRun completes a run with a terminal status. The server rejects ending
// an already-ended run; the client performs no local guard.
func (c *Client) EndRun(ctx context.Context, runID string, params api.EndRunParams) (*api.EndRunResult, error) {
	doc, err := c.pipe.Patch(ctx, "/runs/"+runID, endRunBody{
		Status:       params.Status.String(),
		ErrorMessage: params.ErrorMessage,
		ErrorCode:    params.ErrorCode,
		Metadata:     params.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &api.EndRunResult{
		ID:             doc.Str("id", ""),
		Status:         api.RunStatusFromString(doc.Str("status", "")),
		EndedAt:        doc.Str("endedAt", ""),
		DurationMS:     doc.Int("durationMs", 0),
		EventCount:     doc.Int("eventCount", 0),
		TotalCostUnits: doc.Str("totalCostUnits", ""),
	}, nil
}

// EmitEvent appends a single event to a running run. When no explicit
// idempotency key is supplied, a deterministic key is derived from the run
// id, event type, and quantity.
func (c *Client) EmitEvent(ctx context.Context, params api.EmitEventParams) (*api.Event, error) {
	key := params.IdempotencyKey
	if key == "" {
		key = rest.DeriveKey("evt", params.RunID, params.EventType, params.Quantity)
	}

	doc, err := c.pipe.Post(ctx, "/run-events", emitEventBody{
		RunID:          params.RunID,
		EventType:      params.EventType,
		IdempotencyKey: key,
		Quantity:       params.Quantity,
		Units:          params.Units,
		Description:    params.Description,
		CostUnits:      params.CostUnits,
		Metadata:       params.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &api.Event{
		ID:          doc.Str("id", ""),
		RunID:       doc.Str("runId", ""),
		EventType:   doc.Str("eventType", ""),
		Quantity:    doc.Float("quantity", 0),
		CostUnits:   doc.Float("costUnits", 0),
		IsDuplicate: doc.Bool("isDuplicate", false),
		Timestamp:   doc.Str("timestamp", ""),
	}, nil
}
