package api

import "testing"

// Every member of the enumeration must survive a wire round trip.
func TestRunStatus_RoundTrip(t *testing.T) {
	statuses := []RunStatus{
		RunPending, RunRunning, RunCompleted, RunFailed, RunCancelled, RunTimeout,
	}
	for _, s := range statuses {
		if got := RunStatusFromString(s.String()); got != s {
			t.Fatalf("round trip of %q yielded %q", s, got)
		}
	}
}

func TestRunStatus_String_UnknownValue(t *testing.T) {
	if got := RunStatus("EXPLODED").String(); got != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for out-of-enum value, got %q", got)
	}
}

// An unrecognized wire token maps to PENDING. Callers depend on this
// fallback; it must not become an error.
func TestRunStatusFromString_UnknownDefaultsToPending(t *testing.T) {
	if got := RunStatusFromString("garbage"); got != RunPending {
		t.Fatalf("expected PENDING fallback for unknown token, got %q", got)
	}
	if got := RunStatusFromString(""); got != RunPending {
		t.Fatalf("expected PENDING fallback for empty token, got %q", got)
	}
}
