package client

import (
	"context"

	"github.com/petrijr/drip/internal/rest"
	"github.com/petrijr/drip/pkg/api"
)

type trackUsageBody struct {
	CustomerID     string       `json:"customerId"`
	UsageType      string       `json:"usageType"`
	Quantity       float64      `json:"quantity"`
	IdempotencyKey string       `json:"idempotencyKey"`
	Units          string       `json:"units,omitempty"`
	Description    string       `json:"description,omitempty"`
	Metadata       api.Metadata `json:"metadata,omitempty"`
}

// TrackUsage records usage for tracking without billing. When no explicit
// idempotency key is supplied, a deterministic key is derived so a retried
// call is deduplicated server-side rather than double-counted.
func (c *Client) TrackUsage(ctx context.Context, params api.TrackUsageParams) (*api.TrackUsageResult, error) {
	key := params.IdempotencyKey
	if key == "" {
		key = rest.DeriveKey("track", params.CustomerID, params.Meter, params.Quantity)
	}

	doc, err := c.pipe.Post(ctx, "/usage/internal", trackUsageBody{
		CustomerID:     params.CustomerID,
		UsageType:      params.Meter,
		Quantity:       params.Quantity,
		IdempotencyKey: key,
		Units:          params.Units,
		Description:    params.Description,
		Metadata:       params.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &api.TrackUsageResult{
		Success:      doc.Bool("success", true),
		UsageEventID: doc.Str("usageEventId", ""),
		CustomerID:   doc.Str("customerId", ""),
		UsageType:    doc.Str("usageType", ""),
		Quantity:     doc.Float("quantity", params.Quantity),
		IsInternal:   doc.Bool("isInternal", false),
		Message:      doc.Str("message", ""),
	}, nil
}
