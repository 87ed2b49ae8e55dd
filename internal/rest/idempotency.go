package rest

import "strconv"

// DeriveKey returns a deterministic idempotency key for the given
// operation-identifying fields. Equal inputs always yield equal keys, so a
// retried call carries the same key and is deduplicated server-side.
//
// The key is a djb2 hash of "prefix:a:b:n" rendered as "prefix_<hex>". It is
// order-sensitive and not collision-resistant; it exists for dedup, not for
// security. Callers that supply an explicit key never reach this function.
func DeriveKey(prefix, a, b string, n float64) string {
	input := prefix + ":" + a + ":" + b + ":" + strconv.FormatFloat(n, 'g', -1, 64)

	var hash uint64 = 5381
	for i := 0; i < len(input); i++ {
		hash = hash<<5 + hash + uint64(input[i])
	}
	return prefix + "_" + strconv.FormatUint(hash, 16)
}

// DeriveIndexKey derives a key from a run id, event type, and event index.
// Used for batch event emission so each event's key is stable across retries
// of the same logical run.
func DeriveIndexKey(prefix, a, b string, i int) string {
	return DeriveKey(prefix, a, b, float64(i))
}

// EventKey picks the idempotency key for the i-th event of a recorded run.
// When the caller supplied an external run id, keys are readable
// "<external>:<type>:<index>" strings; otherwise they are derived from the
// server-assigned run id.
func EventKey(externalRunID, runID, eventType string, i int) string {
	if externalRunID != "" {
		return externalRunID + ":" + eventType + ":" + strconv.Itoa(i)
	}
	return DeriveIndexKey("run", runID, eventType, i)
}
