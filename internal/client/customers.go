package client

import (
	"context"
	"fmt"

	"github.com/petrijr/drip/internal/rest"
	"github.com/petrijr/drip/pkg/api"
)

type createCustomerBody struct {
	ExternalCustomerID string       `json:"externalCustomerId,omitempty"`
	OnchainAddress     string       `json:"onchainAddress,omitempty"`
	Metadata           api.Metadata `json:"metadata,omitempty"`
}

func parseCustomer(doc rest.Document) *api.Customer {
	return &api.Customer{
		ID:                 doc.Str("id", ""),
		ExternalCustomerID: doc.Str("externalCustomerId", ""),
		OnchainAddress:     doc.Str("onchainAddress", ""),
		Status:             doc.Str("status", ""),
		IsInternal:         doc.Bool("isInternal", false),
		Metadata:           doc.Metadata("metadata"),
		CreatedAt:          doc.Str("createdAt", ""),
		UpdatedAt:          doc.Str("updatedAt", ""),
	}
}

// CreateCustomer creates a new customer.
func (c *Client) CreateCustomer(ctx context.Context, params api.CreateCustomerParams) (*api.Customer, error) {
	doc, err := c.pipe.Post(ctx, "/customers", createCustomerBody{
		ExternalCustomerID: params.ExternalCustomerID,
		OnchainAddress:     params.OnchainAddress,
		Metadata:           params.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return parseCustomer(doc), nil
}

// GetCustomer fetches a customer by id.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*api.Customer, error) {
	doc, err := c.pipe.Get(ctx, "/customers/"+customerID)
	if err != nil {
		return nil, err
	}
	return parseCustomer(doc), nil
}

// ListCustomers lists customers with optional filters. A zero Limit uses
// the server default of 100.
func (c *Client) ListCustomers(ctx context.Context, opts api.ListCustomersOptions) (*api.ListCustomersResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	path := fmt.Sprintf("/customers?limit=%d", limit)
	if opts.Status != "" {
		path += "&status=" + opts.Status
	}

	doc, err := c.pipe.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &api.ListCustomersResult{
		Total: doc.Int("count", 0),
	}
	for _, item := range doc.Array("data") {
		result.Customers = append(result.Customers, *parseCustomer(item))
	}
	return result, nil
}

// GetBalance fetches a customer's USDC balance.
func (c *Client) GetBalance(ctx context.Context, customerID string) (*api.Balance, error) {
	doc, err := c.pipe.Get(ctx, "/customers/"+customerID+"/balance")
	if err != nil {
		return nil, err
	}
	return &api.Balance{
		CustomerID:  doc.Str("customerId", ""),
		BalanceUSDC: doc.Str("balanceUsdc", ""),
	}, nil
}
