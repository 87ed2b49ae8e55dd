// Package drip provides a client library for the Drip usage-metering and
// execution-ledger API.
//
// Drip lets a service register customers, report metered usage, and record
// the lifecycle of a "run" (a unit of work such as a training job or an
// inference request) composed of timestamped events. The client is fully
// synchronous: every operation blocks until its network round trip (or
// timeout) completes, and no background goroutines, queues, or automatic
// retries exist.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Client
//  2. RecordRun
//  3. RunRecorder
//  4. Observer
//
// # Client
//
// A Client is constructed from a Config; the API key falls back to the
// DRIP_API_KEY environment variable and the base URL to DRIP_BASE_URL, then
// to the production default. A missing API key fails at construction time,
// never at the first call:
//
//	client, err := drip.New(drip.Config{APIKey: "sk_live_abc123"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Single-call operations cover health checks (Ping), customer management
// (CreateCustomer, GetCustomer, ListCustomers, GetBalance), usage tracking
// (TrackUsage), and incremental run recording (StartRun, EmitEvent, EndRun).
//
// # RecordRun
//
// RecordRun records a complete run in one call. It resolves or creates the
// named workflow, creates the run, emits all events in a single batch with
// deterministic idempotency keys, ends the run with the terminal status,
// and composes a human-readable summary:
//
//	result, err := client.RecordRun(ctx, drip.RecordRunParams{
//	    CustomerID: customer.ID,
//	    Workflow:   "training-run",
//	    Status:     drip.RunCompleted,
//	    Events: []drip.RecordRunEvent{
//	        {EventType: "training.epoch", Quantity: 50, Units: "epochs"},
//	        {EventType: "training.tokens", Quantity: 2500000, Units: "tokens"},
//	    },
//	})
//
// Workflow resolution never fails the operation; on any error the raw
// workflow string is used as the id and the result reports the fallback
// explicitly. Failures in the remaining steps propagate to the caller with
// no rollback.
//
// # RunRecorder
//
// RunRecorder is a fluent builder over RecordRunParams for callers that
// accumulate events as work progresses:
//
//	rec := drip.NewRecorder("training-run").
//	    Customer(customer.ID).
//	    Event("training.epoch", 50, "epochs").
//	    Event("training.tokens", 2500000, "tokens")
//
//	result, err := rec.Record(ctx, client)
//
// # Errors
//
// Every failure is an *drip.Error carrying a message, an HTTP status code
// (0 for transport-local failures), and an optional machine-readable code.
// Authentication (401), not-found (404), rate-limit (429), timeout, and
// network failures are distinguished by kind:
//
//	if drip.IsNotFound(err) {
//	    // customer does not exist
//	}
//
// # Observability
//
// An Observer receives request and run lifecycle callbacks, including the
// resolve-or-create outcome of each RecordRun. LoggingObserver logs them
// through log/slog; CompositeObserver fans out to several observers.
package drip
