// Package testutil provides an in-process drip API server for tests. State
// lives in an embedded SQLite database so idempotency-key deduplication and
// listing behave like the real backend.
package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// APIKey is the key the mock server accepts.
const APIKey = "sk_test_mock"

// Server is a fake drip backend. BaseURL (the server URL plus the API
// version segment) is what a client under test should be configured with;
// the health endpoint is served at the server root, like production.
type Server struct {
	URL     string // server root
	BaseURL string // server root + "/v1"

	t  *testing.T
	db *sql.DB
	hs *httptest.Server

	mu       sync.Mutex
	requests []string
	failures map[string]failure
}

type failure struct {
	status  int
	message string
}

// StartServer starts a mock drip API backed by an in-memory SQLite
// database. The server and database are torn down via t.Cleanup.
func StartServer(t *testing.T) *Server {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// The in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	require.NoError(t, initSchema(db))

	s := &Server{
		t:        t,
		db:       db,
		failures: map[string]failure{},
	}
	s.hs = httptest.NewServer(s.handler())
	s.URL = s.hs.URL
	s.BaseURL = s.hs.URL + "/v1"

	t.Cleanup(func() {
		s.hs.Close()
		_ = db.Close()
	})
	return s
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE customers (
			id TEXT PRIMARY KEY,
			external_customer_id TEXT,
			onchain_address TEXT,
			status TEXT NOT NULL,
			metadata TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE usage_events (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			usage_type TEXT NOT NULL,
			quantity REAL NOT NULL,
			idempotency_key TEXT UNIQUE,
			units TEXT,
			description TEXT,
			metadata TEXT
		);
		CREATE TABLE workflows (
			id TEXT PRIMARY KEY,
			slug TEXT UNIQUE,
			name TEXT NOT NULL,
			product_surface TEXT
		);
		CREATE TABLE runs (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			workflow_id TEXT NOT NULL,
			workflow_name TEXT,
			status TEXT NOT NULL,
			external_run_id TEXT,
			correlation_id TEXT,
			metadata TEXT,
			created_at TEXT NOT NULL,
			started_unix_ms INTEGER NOT NULL,
			ended_at TEXT,
			duration_ms INTEGER,
			error_message TEXT,
			error_code TEXT
		);
		CREATE TABLE run_events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			quantity REAL,
			units TEXT,
			description TEXT,
			cost_units REAL,
			idempotency_key TEXT UNIQUE,
			metadata TEXT,
			timestamp TEXT NOT NULL
		);`,
	)
	return err
}

// Fail makes every subsequent "METHOD /path" call answer with the given
// status and error message until Unfail is called for the same route.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Unfail removes a failure injected with Fail.
func (s *Server) Unfail(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests returns every "METHOD /path" seen so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// SeedWorkflow inserts a workflow directly into the backing store and
// returns its id.
func (s *Server) SeedWorkflow(slug, name string) string {
	s.t.Helper()
	id := "wf_" + uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO workflows (id, slug, name, product_surface) VALUES (?, ?, ?, ?)`,
		id, slug, name, "CUSTOM",
	)
	require.NoError(s.t, err)
	return id
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /v1/customers", s.createCustomer)
	mux.HandleFunc("GET /v1/customers", s.listCustomers)
	mux.HandleFunc("GET /v1/customers/{id}", s.getCustomer)
	mux.HandleFunc("GET /v1/customers/{id}/balance", s.getBalance)
	mux.HandleFunc("POST /v1/usage/internal", s.trackUsage)
	mux.HandleFunc("GET /v1/workflows", s.listWorkflows)
	mux.HandleFunc("POST /v1/workflows", s.createWorkflow)
	mux.HandleFunc("POST /v1/runs", s.createRun)
	mux.HandleFunc("PATCH /v1/runs/{id}", s.endRun)
	mux.HandleFunc("POST /v1/run-events", s.emitEvent)
	mux.HandleFunc("POST /v1/run-events/batch", s.emitBatch)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, key)
		f, failed := s.failures[key]
		s.mu.Unlock()

		if failed {
			writeJSON(w, f.status, map[string]any{"message": f.message, "code": "INJECTED"})
			return
		}

		// The health endpoint is unauthenticated, like production.
		if r.URL.Path != "/health" && r.Header.Get("Authorization") != "Bearer "+APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"message": "Invalid API key",
				"code":    "UNAUTHORIZED",
			})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(r *http.Request) map[string]any {
	var doc map[string]any
	_ = json.NewDecoder(r.Body).Decode(&doc)
	if doc == nil {
		doc = map[string]any{}
	}
	return doc
}

func str(doc map[string]any, key string) string {
	v, _ := doc[key].(string)
	return v
}

func num(doc map[string]any, key string) float64 {
	v, _ := doc[key].(float64)
	return v
}

func metaJSON(doc map[string]any, key string) string {
	v, ok := doc[key].(map[string]any)
	if !ok {
		return "{}"
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- handlers ---

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	external := str(body, "externalCustomerId")
	onchain := str(body, "onchainAddress")
	if external == "" && onchain == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "externalCustomerId or onchainAddress is required",
			"code":    "INVALID_REQUEST",
		})
		return
	}

	id := "cust_" + uuid.NewString()
	now := nowRFC3339()
	_, err := s.db.Exec(
		`INSERT INTO customers (id, external_customer_id, onchain_address, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, external, onchain, "ACTIVE", metaJSON(body, "metadata"), now, now,
	)
	require.NoError(s.t, err)

	writeJSON(w, http.StatusCreated, s.customerJSON(id))
}

func (s *Server) customerJSON(id string) map[string]any {
	var external, onchain, status, meta, created, updated string
	err := s.db.QueryRow(
		`SELECT external_customer_id, onchain_address, status, metadata, created_at, updated_at
		 FROM customers WHERE id = ?`, id,
	).Scan(&external, &onchain, &status, &meta, &created, &updated)
	if err != nil {
		return nil
	}

	var metadata map[string]any
	_ = json.Unmarshal([]byte(meta), &metadata)
	return map[string]any{
		"id":                 id,
		"externalCustomerId": external,
		"onchainAddress":     onchain,
		"status":             status,
		"isInternal":         false,
		"metadata":           metadata,
		"createdAt":          created,
		"updatedAt":          updated,
	}
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c := s.customerJSON(r.PathValue("id"))
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": "Customer not found",
			"code":    "NOT_FOUND",
		})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id FROM customers`
	args := []any{}
	if status := r.URL.Query().Get("status"); status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	require.NoError(s.t, err)
	defer rows.Close()

	// Drain the cursor before querying per customer: the pool has a
	// single connection, which open rows would otherwise hold.
	ids := []string{}
	for rows.Next() {
		var id string
		require.NoError(s.t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(s.t, rows.Err())
	rows.Close()

	data := []any{}
	for _, id := range ids {
		data = append(data, s.customerJSON(id))
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": data, "count": len(data)})
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.customerJSON(id) == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": "Customer not found",
			"code":    "NOT_FOUND",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customerId":  id,
		"balanceUsdc": "100.000000",
	})
}

func (s *Server) trackUsage(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	key := str(body, "idempotencyKey")

	var existing string
	err := s.db.QueryRow(`SELECT id FROM usage_events WHERE idempotency_key = ?`, key).Scan(&existing)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"usageEventId": existing,
			"customerId":   str(body, "customerId"),
			"usageType":    str(body, "usageType"),
			"quantity":     num(body, "quantity"),
			"isInternal":   true,
			"isDuplicate":  true,
			"message":      "Duplicate usage event ignored",
		})
		return
	}

	id := "usage_" + uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO usage_events (id, customer_id, usage_type, quantity, idempotency_key, units, description, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, str(body, "customerId"), str(body, "usageType"), num(body, "quantity"),
		key, str(body, "units"), str(body, "description"), metaJSON(body, "metadata"),
	)
	require.NoError(s.t, err)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"usageEventId": id,
		"customerId":   str(body, "customerId"),
		"usageType":    str(body, "usageType"),
		"quantity":     num(body, "quantity"),
		"isInternal":   true,
		"isDuplicate":  false,
		"message":      "Usage recorded",
	})
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`SELECT id, slug, name FROM workflows ORDER BY slug`)
	require.NoError(s.t, err)
	defer rows.Close()

	data := []any{}
	for rows.Next() {
		var id, slug, name string
		require.NoError(s.t, rows.Scan(&id, &slug, &name))
		data = append(data, map[string]any{"id": id, "slug": slug, "name": name})
	}
	require.NoError(s.t, rows.Err())

	writeJSON(w, http.StatusOK, map[string]any{"data": data, "count": len(data)})
}

func (s *Server) createWorkflow(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	id := "wf_" + uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO workflows (id, slug, name, product_surface) VALUES (?, ?, ?, ?)`,
		id, str(body, "slug"), str(body, "name"), str(body, "productSurface"),
	)
	require.NoError(s.t, err)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   id,
		"slug": str(body, "slug"),
		"name": str(body, "name"),
	})
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	customerID := str(body, "customerId")
	workflowID := str(body, "workflowId")
	if customerID == "" || workflowID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "customerId and workflowId are required",
			"code":    "INVALID_REQUEST",
		})
		return
	}

	// Resolve the display name when the id names a stored workflow.
	workflowName := workflowID
	_ = s.db.QueryRow(`SELECT name FROM workflows WHERE id = ?`, workflowID).Scan(&workflowName)

	id := "run_" + uuid.NewString()
	now := nowRFC3339()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, customer_id, workflow_id, workflow_name, status, external_run_id, correlation_id, metadata, created_at, started_unix_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, customerID, workflowID, workflowName, "RUNNING",
		str(body, "externalRunId"), str(body, "correlationId"), metaJSON(body, "metadata"),
		now, time.Now().UnixMilli(),
	)
	require.NoError(s.t, err)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            id,
		"customerId":    customerID,
		"workflowId":    workflowID,
		"workflowName":  workflowName,
		"status":        "RUNNING",
		"correlationId": str(body, "correlationId"),
		"createdAt":     now,
	})
}

func (s *Server) endRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body := readBody(r)

	var status string
	var started int64
	err := s.db.QueryRow(`SELECT status, started_unix_ms FROM runs WHERE id = ?`, id).Scan(&status, &started)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": "Run not found",
			"code":    "NOT_FOUND",
		})
		return
	}
	if status != "RUNNING" && status != "PENDING" {
		writeJSON(w, http.StatusConflict, map[string]any{
			"message": "Run already ended",
			"code":    "RUN_ENDED",
		})
		return
	}

	newStatus := str(body, "status")
	endedAt := nowRFC3339()
	durationMS := time.Now().UnixMilli() - started
	_, err = s.db.Exec(
		`UPDATE runs SET status = ?, ended_at = ?, duration_ms = ?, error_message = ?, error_code = ? WHERE id = ?`,
		newStatus, endedAt, durationMS, str(body, "errorMessage"), str(body, "errorCode"), id,
	)
	require.NoError(s.t, err)

	var eventCount int
	var totalCost sql.NullFloat64
	require.NoError(s.t, s.db.QueryRow(
		`SELECT COUNT(*), SUM(cost_units) FROM run_events WHERE run_id = ?`, id,
	).Scan(&eventCount, &totalCost))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":             id,
		"status":         newStatus,
		"endedAt":        endedAt,
		"durationMs":     durationMS,
		"eventCount":     eventCount,
		"totalCostUnits": fmt.Sprintf("%.6f", totalCost.Float64),
	})
}

// insertEvent stores one event, deduplicating on the idempotency key.
// It returns the event id and whether the key was seen before.
func (s *Server) insertEvent(body map[string]any) (string, bool) {
	key := str(body, "idempotencyKey")

	var existing string
	if err := s.db.QueryRow(`SELECT id FROM run_events WHERE idempotency_key = ?`, key).Scan(&existing); err == nil {
		return existing, true
	}

	id := "evt_" + uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO run_events (id, run_id, event_type, quantity, units, description, cost_units, idempotency_key, metadata, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, str(body, "runId"), str(body, "eventType"), num(body, "quantity"),
		str(body, "units"), str(body, "description"), num(body, "costUnits"),
		key, metaJSON(body, "metadata"), nowRFC3339(),
	)
	require.NoError(s.t, err)
	return id, false
}

func (s *Server) emitEvent(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	id, dup := s.insertEvent(body)

	status := http.StatusCreated
	if dup {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"id":          id,
		"runId":       str(body, "runId"),
		"eventType":   str(body, "eventType"),
		"quantity":    num(body, "quantity"),
		"costUnits":   num(body, "costUnits"),
		"isDuplicate": dup,
		"timestamp":   nowRFC3339(),
	})
}

func (s *Server) emitBatch(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	events, _ := body["events"].([]any)

	created, duplicates := 0, 0
	for _, raw := range events {
		evt, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, dup := s.insertEvent(evt); dup {
			duplicates++
		} else {
			created++
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"created":    created,
		"duplicates": duplicates,
	})
}
