package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/petrijr/drip/internal/rest"
	"github.com/petrijr/drip/pkg/api"
)

// workflowIDPrefix marks server-assigned workflow ids; identifiers carrying
// it skip the resolve-or-create step.
const workflowIDPrefix = "wf_"

type createWorkflowBody struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	ProductSurface string `json:"productSurface"`
}

type batchEventBody struct {
	RunID          string       `json:"runId"`
	EventType      string       `json:"eventType"`
	IdempotencyKey string       `json:"idempotencyKey"`
	Quantity       float64      `json:"quantity,omitempty"`
	Units          string       `json:"units,omitempty"`
	Description    string       `json:"description,omitempty"`
	CostUnits      float64      `json:"costUnits,omitempty"`
	Metadata       api.Metadata `json:"metadata,omitempty"`
}

type batchBody struct {
	Events []batchEventBody `json:"events"`
}

// RecordRun records a complete run in one call. It is the only multi-step
// operation in the client:
//
//  1. Resolve or create the workflow. This step never fails the operation:
//     on any listing or creation error the raw workflow string is used as
//     the id and the result is marked WorkflowFallback.
//  2. Start the run. Errors propagate.
//  3. Emit all events in a single batch, skipped when there are none.
//     Errors propagate; the run is left started with no compensating action.
//  4. End the run with the terminal status. Errors propagate.
//
// There are no retries and no rollback on partial failure.
func (c *Client) RecordRun(ctx context.Context, params api.RecordRunParams) (*api.RecordRunResult, error) {
	start := time.Now()

	status := params.Status
	if status == "" {
		status = api.RunCompleted
	}

	wf := c.resolveWorkflow(ctx, params.Workflow)
	c.obs.OnWorkflowResolved(ctx, params.Workflow, wf)

	run, err := c.StartRun(ctx, api.StartRunParams{
		CustomerID:    params.CustomerID,
		WorkflowID:    wf.ID,
		ExternalRunID: params.ExternalRunID,
		CorrelationID: params.CorrelationID,
		Metadata:      params.Metadata,
	})
	if err != nil {
		return nil, err
	}

	var created, duplicates int
	if len(params.Events) > 0 {
		batch := batchBody{Events: make([]batchEventBody, 0, len(params.Events))}
		for i, evt := range params.Events {
			batch.Events = append(batch.Events, batchEventBody{
				RunID:          run.ID,
				EventType:      evt.EventType,
				IdempotencyKey: rest.EventKey(params.ExternalRunID, run.ID, evt.EventType, i),
				Quantity:       evt.Quantity,
				Units:          evt.Units,
				Description:    evt.Description,
				CostUnits:      evt.CostUnits,
				Metadata:       evt.Metadata,
			})
		}

		doc, err := c.pipe.Post(ctx, "/run-events/batch", batch)
		if err != nil {
			return nil, err
		}
		created = doc.Int("created", 0)
		duplicates = doc.Int("duplicates", 0)
	}

	end, err := c.EndRun(ctx, run.ID, api.EndRunParams{
		Status:       status,
		ErrorMessage: params.ErrorMessage,
		ErrorCode:    params.ErrorCode,
	})
	if err != nil {
		return nil, err
	}

	// Prefer the server-reported duration; fall back to wall-clock time
	// when the server reports zero.
	displayMS := end.DurationMS
	if displayMS <= 0 {
		displayMS = int(time.Since(start).Milliseconds())
	}

	result := &api.RecordRunResult{
		Run: api.RecordRunRun{
			ID:           run.ID,
			WorkflowID:   wf.ID,
			WorkflowName: wf.Name,
			Status:       status,
			DurationMS:   end.DurationMS,
		},
		Events: api.RecordRunEvents{
			Created:    created,
			Duplicates: duplicates,
		},
		Workflow:       wf,
		TotalCostUnits: end.TotalCostUnits,
		Summary:        summarize(status, wf.Name, created, displayMS),
	}
	c.obs.OnRunRecorded(ctx, result)
	return result, nil
}

// resolveWorkflow maps a workflow slug or id to a server workflow id.
//
// Identifiers already carrying the server id prefix are used directly.
// Otherwise existing workflows are matched by slug or id; with no match, a
// new workflow is created under a derived display name and the CUSTOM
// product surface. Listing or creation errors fall back to the raw
// identifier so this step can never abort the run.
func (c *Client) resolveWorkflow(ctx context.Context, workflow string) api.RecordRunWorkflow {
	if strings.HasPrefix(workflow, workflowIDPrefix) {
		return api.RecordRunWorkflow{
			ID:         workflow,
			Name:       workflow,
			Resolution: api.WorkflowDirect,
		}
	}

	doc, err := c.pipe.Get(ctx, "/workflows")
	if err != nil {
		return fallbackWorkflow(workflow)
	}

	for _, w := range doc.Array("data") {
		slug := w.Str("slug", "")
		id := w.Str("id", "")
		if slug == workflow || id == workflow {
			return api.RecordRunWorkflow{
				ID:         id,
				Name:       w.Str("name", ""),
				Resolution: api.WorkflowFound,
			}
		}
	}

	createdDoc, err := c.pipe.Post(ctx, "/workflows", createWorkflowBody{
		Name:           displayName(workflow),
		Slug:           workflow,
		ProductSurface: "CUSTOM",
	})
	if err != nil {
		return fallbackWorkflow(workflow)
	}

	return api.RecordRunWorkflow{
		ID:         createdDoc.Str("id", ""),
		Name:       createdDoc.Str("name", ""),
		Resolution: api.WorkflowCreated,
	}
}

func fallbackWorkflow(workflow string) api.RecordRunWorkflow {
	return api.RecordRunWorkflow{
		ID:         workflow,
		Name:       workflow,
		Resolution: api.WorkflowFallback,
	}
}

// displayName derives a workflow display name from a slug: underscores and
// hyphens become spaces and each word is capitalized, so "training-run"
// becomes "Training Run".
func displayName(slug string) string {
	b := []byte(slug)
	capNext := true
	for i := 0; i < len(b); i++ {
		if b[i] == '_' || b[i] == '-' {
			b[i] = ' '
		}
		if capNext && b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
		capNext = b[i] == ' '
	}
	return string(b)
}

// summarize composes the human-readable result line, e.g.
// "[OK] Training Run: 2 events recorded (431ms)".
func summarize(status api.RunStatus, workflowName string, created, durationMS int) string {
	var glyph string
	switch status {
	case api.RunCompleted:
		glyph = "[OK]"
	case api.RunFailed:
		glyph = "[FAIL]"
	default:
		glyph = "[--]"
	}
	return fmt.Sprintf("%s %s: %d events recorded (%dms)", glyph, workflowName, created, durationMS)
}
