package client

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/drip/internal/testutil"
	"github.com/petrijr/drip/pkg/api"
)

func TestDisplayName(t *testing.T) {
	cases := []struct {
		slug string
		want string
	}{
		{"training-run", "Training Run"},
		{"data_export", "Data Export"},
		{"nightly-etl_job", "Nightly Etl Job"},
		{"single", "Single"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := displayName(tc.slug); got != tc.want {
			t.Fatalf("displayName(%q) = %q, want %q", tc.slug, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		status api.RunStatus
		want   string
	}{
		{api.RunCompleted, "[OK] Training Run: 2 events recorded (431ms)"},
		{api.RunFailed, "[FAIL] Training Run: 2 events recorded (431ms)"},
		{api.RunCancelled, "[--] Training Run: 2 events recorded (431ms)"},
	}
	for _, tc := range cases {
		if got := summarize(tc.status, "Training Run", 2, 431); got != tc.want {
			t.Fatalf("summarize(%s) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func requestCount(srv *testutil.Server, key string) int {
	n := 0
	for _, r := range srv.Requests() {
		if r == key {
			n++
		}
	}
	return n
}

func TestRecordRun_CreatesWorkflowAndRecordsEvents(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "training-run",
		Events: []api.RecordRunEvent{
			{EventType: "training.epoch", Quantity: 50, Units: "epochs"},
			{EventType: "training.tokens", Quantity: 2500000, Units: "tokens"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, api.WorkflowCreated, result.Workflow.Resolution)
	assert.True(t, strings.HasPrefix(result.Workflow.ID, "wf_"), "workflow id %q", result.Workflow.ID)
	assert.Equal(t, "Training Run", result.Workflow.Name)

	assert.Equal(t, api.RunCompleted, result.Run.Status)
	assert.True(t, strings.HasPrefix(result.Run.ID, "run_"), "run id %q", result.Run.ID)
	assert.Equal(t, result.Workflow.ID, result.Run.WorkflowID)

	assert.Equal(t, 2, result.Events.Created)
	assert.Equal(t, 0, result.Events.Duplicates)
	assert.Contains(t, result.Summary, "[OK] Training Run: 2 events recorded")
}

func TestRecordRun_FindsExistingWorkflow(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	workflowID := srv.SeedWorkflow("training-run", "Training Run")

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "training-run",
	})
	require.NoError(t, err)

	assert.Equal(t, api.WorkflowFound, result.Workflow.Resolution)
	assert.Equal(t, workflowID, result.Workflow.ID)
	assert.Zero(t, requestCount(srv, "POST /v1/workflows"), "found workflows must not be recreated")
}

// An identifier already carrying the server id prefix skips resolution
// entirely; no workflow listing happens.
func TestRecordRun_DirectWorkflowID(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "wf_preassigned",
	})
	require.NoError(t, err)

	assert.Equal(t, api.WorkflowDirect, result.Workflow.Resolution)
	assert.Equal(t, "wf_preassigned", result.Workflow.ID)
	assert.Zero(t, requestCount(srv, "GET /v1/workflows"))
}

// Workflow resolution never aborts the run: when listing fails, the raw
// identifier is used as the workflow id and recording proceeds.
func TestRecordRun_ResolutionFailureFallsBack(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	srv.Fail("GET", "/v1/workflows", 500, "listing exploded")

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "training-run",
		Events: []api.RecordRunEvent{
			{EventType: "training.epoch", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, api.WorkflowFallback, result.Workflow.Resolution)
	assert.Equal(t, "training-run", result.Workflow.ID)
	assert.Equal(t, 1, result.Events.Created)
}

func TestRecordRun_CreationFailureFallsBack(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	srv.Fail("POST", "/v1/workflows", 500, "creation exploded")

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "training-run",
	})
	require.NoError(t, err)
	assert.Equal(t, api.WorkflowFallback, result.Workflow.Resolution)
	assert.Equal(t, "training-run", result.Workflow.ID)
}

// With no events there is no batch call at all.
func TestRecordRun_NoEventsSkipsBatch(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "wf_direct",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Events.Created)
	assert.Zero(t, requestCount(srv, "POST /v1/run-events/batch"))
	assert.Contains(t, result.Summary, "0 events recorded")
}

// The zero status records a completed run.
func TestRecordRun_DefaultStatusIsCompleted(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "wf_direct",
	})
	require.NoError(t, err)
	assert.Equal(t, api.RunCompleted, result.Run.Status)
	assert.True(t, strings.HasPrefix(result.Summary, "[OK]"), "summary %q", result.Summary)
}

func TestRecordRun_FailedRun(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID:   "cust_1",
		Workflow:     "wf_direct",
		Status:       api.RunFailed,
		ErrorMessage: "gpu on fire",
		ErrorCode:    "HARDWARE",
	})
	require.NoError(t, err)
	assert.Equal(t, api.RunFailed, result.Run.Status)
	assert.True(t, strings.HasPrefix(result.Summary, "[FAIL]"), "summary %q", result.Summary)
}

// With an external run id, event keys are stable across run attempts, so
// re-recording the same logical run deduplicates every event.
func TestRecordRun_ExternalRunIDDeduplicatesAcrossRuns(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	params := api.RecordRunParams{
		CustomerID:    "cust_1",
		Workflow:      "wf_direct",
		ExternalRunID: "job-2024-77",
		Events: []api.RecordRunEvent{
			{EventType: "training.epoch", Quantity: 50},
			{EventType: "training.tokens", Quantity: 2500000},
		},
	}

	first, err := c.RecordRun(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Events.Created)

	second, err := c.RecordRun(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Events.Created)
	assert.Equal(t, 2, second.Events.Duplicates)
}

// Without an external run id, keys derive from the server-assigned run id:
// repeated events inside one run deduplicate, separate runs do not collide.
func TestRecordRun_DerivedKeysAreScopedToTheRun(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	params := api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "wf_direct",
		Events: []api.RecordRunEvent{
			{EventType: "training.epoch", Quantity: 50},
			{EventType: "training.epoch", Quantity: 50},
		},
	}

	first, err := c.RecordRun(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Events.Created, "same type at different indexes must not collide")

	second, err := c.RecordRun(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Events.Created, "a new run gets fresh keys")
}

func TestRecordRun_StartFailureAborts(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	srv.Fail("POST", "/v1/runs", 500, "cannot start")

	_, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "wf_direct",
	})
	require.Error(t, err)
	assert.Zero(t, requestCount(srv, "POST /v1/run-events/batch"))
}

// A batch failure propagates and the run is left started; there is no
// compensating end call.
func TestRecordRun_BatchFailureLeavesRunStarted(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newTestClient(t, srv)
	srv.Fail("POST", "/v1/run-events/batch", 500, "batch exploded")

	_, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "wf_direct",
		Events:     []api.RecordRunEvent{{EventType: "x", Quantity: 1}},
	})
	require.Error(t, err)

	assert.Equal(t, 1, requestCount(srv, "POST /v1/runs"))
	for _, r := range srv.Requests() {
		assert.False(t, strings.HasPrefix(r, "PATCH "), "unexpected end call %q", r)
	}
}

// runObserver captures the RecordRun lifecycle callbacks.
type runObserver struct {
	api.NoopObserver

	workflow   string
	resolution api.WorkflowResolution
	recorded   *api.RecordRunResult
}

func (o *runObserver) OnWorkflowResolved(ctx context.Context, workflow string, wf api.RecordRunWorkflow) {
	o.workflow = workflow
	o.resolution = wf.Resolution
}

func (o *runObserver) OnRunRecorded(ctx context.Context, result *api.RecordRunResult) {
	o.recorded = result
}

func TestRecordRun_NotifiesObserver(t *testing.T) {
	srv := testutil.StartServer(t)
	obs := &runObserver{}
	c, err := New(api.Config{APIKey: testutil.APIKey, BaseURL: srv.BaseURL}, obs)
	require.NoError(t, err)

	result, err := c.RecordRun(context.Background(), api.RecordRunParams{
		CustomerID: "cust_1",
		Workflow:   "training-run",
	})
	require.NoError(t, err)

	assert.Equal(t, "training-run", obs.workflow)
	assert.Equal(t, api.WorkflowCreated, obs.resolution)
	require.NotNil(t, obs.recorded)
	assert.Equal(t, result.Run.ID, obs.recorded.Run.ID)
}
