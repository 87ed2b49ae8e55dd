package api

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives callbacks from the client for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay the calling request.
type Observer interface {
	// OnRequest is called before each HTTP request is issued.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse is called after each HTTP request, for both successes and
	// failures (err != nil). status is 0 when no response was obtained.
	OnResponse(ctx context.Context, method, path string, status int, err error, duration time.Duration)

	// OnWorkflowResolved reports the outcome of the resolve-or-create
	// workflow step inside RecordRun, including the silent fallback taken
	// when listing or creation fails.
	OnWorkflowResolved(ctx context.Context, workflow string, wf RecordRunWorkflow)

	// OnRunRecorded is called once after a RecordRun call completes
	// successfully.
	OnRunRecorded(ctx context.Context, result *RecordRunResult)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRequest(ctx context.Context, method, path string) {}
func (NoopObserver) OnResponse(ctx context.Context, method, path string, status int, err error, d time.Duration) {
}
func (NoopObserver) OnWorkflowResolved(ctx context.Context, workflow string, wf RecordRunWorkflow) {
}
func (NoopObserver) OnRunRecorded(ctx context.Context, result *RecordRunResult) {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRequest(ctx context.Context, method, path string) {
	for _, o := range c.observers {
		o.OnRequest(ctx, method, path)
	}
}

func (c *CompositeObserver) OnResponse(ctx context.Context, method, path string, status int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnResponse(ctx, method, path, status, err, d)
	}
}

func (c *CompositeObserver) OnWorkflowResolved(ctx context.Context, workflow string, wf RecordRunWorkflow) {
	for _, o := range c.observers {
		o.OnWorkflowResolved(ctx, workflow, wf)
	}
}

func (c *CompositeObserver) OnRunRecorded(ctx context.Context, result *RecordRunResult) {
	for _, o := range c.observers {
		o.OnRunRecorded(ctx, result)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs request and run lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRequest(ctx context.Context, method, path string) {
	o.Logger.DebugContext(ctx, "request_start",
		slog.String("method", method),
		slog.String("path", path),
	)
}

func (o *LoggingObserver) OnResponse(ctx context.Context, method, path string, status int, err error, d time.Duration) {
	if err != nil {
		o.Logger.WarnContext(ctx, "request_failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.Duration("duration", d),
		)
		return
	}
	o.Logger.DebugContext(ctx, "request_done",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnWorkflowResolved(ctx context.Context, workflow string, wf RecordRunWorkflow) {
	o.Logger.InfoContext(ctx, "workflow_resolved",
		slog.String("workflow", workflow),
		slog.String("workflow_id", wf.ID),
		slog.String("resolution", string(wf.Resolution)),
	)
}

func (o *LoggingObserver) OnRunRecorded(ctx context.Context, result *RecordRunResult) {
	o.Logger.InfoContext(ctx, "run_recorded",
		slog.String("run_id", result.Run.ID),
		slog.String("workflow", result.Run.WorkflowName),
		slog.String("status", string(result.Run.Status)),
		slog.Int("events_created", result.Events.Created),
		slog.Int("events_duplicates", result.Events.Duplicates),
		slog.Int("duration_ms", result.Run.DurationMS),
	)
}
