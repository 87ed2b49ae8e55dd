// Package api contains the core building blocks used by the drip client
// library. It provides the configuration, parameter and result types, the
// run status enumeration, the error taxonomy, and the Observer interface
// used for logging and metrics.
//
// Most users interact with the higher-level drip package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// client itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Customers and usage records
//   - Runs and events (the execution ledger)
//   - Workflows
//   - Typed errors
//   - Observability
//
// # Customers and Usage
//
// A customer is identified by a server-assigned id plus an external
// identifier and/or an on-chain address. Usage records attribute a quantity
// of a named meter (for example "tokens" or "api_calls") to a customer.
// Usage is append-only; the server deduplicates retried writes using
// idempotency keys.
//
// # Runs and Events
//
// A run is one tracked execution, bounded by a start and an end, containing
// zero or more timestamped events. Runs are grouped under workflows, which
// are named templates identified by a slug or a server-assigned id. Run
// statuses form a fixed six-member enumeration; see RunStatus.
//
// # Errors
//
// All failures surface as *Error values carrying a message, an HTTP status
// code (0 for transport-local failures), and an optional machine-readable
// code. Discriminate with errors.As plus the Kind field, or use the
// IsAuthentication, IsNotFound, IsRateLimit, IsTimeout, and IsNetwork
// predicates.
package api
