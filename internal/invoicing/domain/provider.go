package domain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
)

// Page is one page of raw provider documents.
type Page struct {
	Documents  []json.RawMessage
	NextCursor string
}

// Record is a normalized cache row ready to upsert.
type Record struct {
	ExternalID    string
	CustomerEmail string
	Amount        string
	Summary       string
	Raw           json.RawMessage
}

// LineItem is one invoice line. Quantity is the provider's decimal string.
type LineItem struct {
	Name            string
	Quantity        string
	UnitAmountMinor int64
}

// TotalMinor is the unit amount times quantity. An unparseable quantity
// counts as one.
func (l LineItem) TotalMinor() int64 {
	quantity, err := decimal.NewFromString(strings.TrimSpace(l.Quantity))
	if err != nil {
		quantity = decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(l.UnitAmountMinor).Mul(quantity).Round(0).IntPart()
}

// TotalMinor sums every line.
func TotalMinor(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.TotalMinor()
	}
	return total
}

// SubmitRequest is everything needed to create an invoice upstream.
type SubmitRequest struct {
	Title          string
	CustomerEmail  string
	Currency       string
	DueDate        string
	Reference      string
	ChannelName    string
	IdempotencyKey string
	Items          []LineItem
}

// Created is the provider's new invoice, normalized for the cache.
type Created struct {
	Record
	OrderID string
}

// Provider is implemented once per family.
type Provider interface {
	Family() Family
	Validate(creds integrationdomain.Credentials) error
	ListPage(ctx context.Context, creds integrationdomain.Credentials, cursor string) (*Page, error)
	Normalize(ctx context.Context, creds integrationdomain.Credentials, docs []json.RawMessage) ([]Record, error)
	TemplateLineItems(ctx context.Context, creds integrationdomain.Credentials, template CachedInvoice, fallbackTitle string) ([]LineItem, error)
	CreateOrderAndInvoice(ctx context.Context, creds integrationdomain.Credentials, req SubmitRequest) (*Created, error)
	Describe(invoice CachedInvoice) Detail
}

// Location is a Square business location.
type Location struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name"`
}

// LocationLister is implemented by providers that expose locations.
type LocationLister interface {
	Locations(ctx context.Context, creds integrationdomain.Credentials) ([]Location, error)
}
