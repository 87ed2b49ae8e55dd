package drip_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	drip "github.com/petrijr/drip"
	"github.com/petrijr/drip/internal/testutil"
)

func TestNewRecorder_PanicsOnEmptyWorkflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for empty workflow")
		}
	}()
	drip.NewRecorder("")
}

func TestRunRecorder_AccumulatesParams(t *testing.T) {
	rec := drip.NewRecorder("training-run").
		Customer("cust_1").
		Event("training.epoch", 50, "epochs").
		AddEvent(drip.RecordRunEvent{
			EventType: "training.checkpoint",
			Quantity:  3,
			CostUnits: 0.25,
		}).
		ExternalRunID("job-77").
		CorrelationID("corr-1").
		Meta("model", "transformer").
		Meta("phase", "train")

	p := rec.Params()
	assert.Equal(t, "training-run", p.Workflow)
	assert.Equal(t, "cust_1", p.CustomerID)
	assert.Equal(t, "job-77", p.ExternalRunID)
	assert.Equal(t, "corr-1", p.CorrelationID)
	assert.Equal(t, drip.Metadata{"model": "transformer", "phase": "train"}, p.Metadata)

	require.Len(t, p.Events, 2)
	assert.Equal(t, "training.epoch", p.Events[0].EventType)
	assert.Equal(t, float64(50), p.Events[0].Quantity)
	assert.Equal(t, "epochs", p.Events[0].Units)
	assert.Equal(t, 0.25, p.Events[1].CostUnits)
}

func TestRunRecorder_Failed(t *testing.T) {
	p := drip.NewRecorder("training-run").
		Failed("gpu on fire", "HARDWARE").
		Params()

	assert.Equal(t, drip.RunFailed, p.Status)
	assert.Equal(t, "gpu on fire", p.ErrorMessage)
	assert.Equal(t, "HARDWARE", p.ErrorCode)
}

// Params returns copies: mutating the snapshot must not leak back into the
// recorder, and vice versa.
func TestRunRecorder_ParamsAreDetached(t *testing.T) {
	rec := drip.NewRecorder("training-run").
		Event("training.epoch", 1, "epochs").
		Meta("model", "transformer")

	snapshot := rec.Params()
	snapshot.Metadata["model"] = "mutated"
	snapshot.Events[0].Quantity = 999

	rec.Meta("phase", "train")

	fresh := rec.Params()
	assert.Equal(t, "transformer", fresh.Metadata["model"])
	assert.Equal(t, float64(1), fresh.Events[0].Quantity)
	assert.NotContains(t, snapshot.Metadata, "phase")
}

func TestRunRecorder_Record(t *testing.T) {
	srv := testutil.StartServer(t)
	c := newClient(t, srv)

	result, err := drip.NewRecorder("training-run").
		Customer("cust_1").
		Event("training.epoch", 50, "epochs").
		Event("training.tokens", 2500000, "tokens").
		Record(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Events.Created)
	assert.Equal(t, drip.RunCompleted, result.Run.Status)
	assert.Contains(t, result.Summary, "Training Run")
}
