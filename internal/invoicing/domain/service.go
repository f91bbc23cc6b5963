package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, family Family, invoice *CachedInvoice) error
	List(ctx context.Context, db *gorm.DB, family Family, ownerID snowflake.ID) ([]CachedInvoice, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, family Family, ownerID snowflake.ID, externalID string) (*CachedInvoice, error)
}

type Service interface {
	Sync(ctx context.Context, family Family) (*SyncResult, error)
	List(ctx context.Context, family Family) ([]InvoiceView, error)
	Get(ctx context.Context, family Family, externalID string) (*InvoiceView, error)
	RenderPDF(ctx context.Context, family Family, externalID string) ([]byte, error)
	Locations(ctx context.Context) ([]Location, error)
	CreateFromTemplate(ctx context.Context, req FromTemplateRequest) (*CreatedInvoice, error)
	CreateCustom(ctx context.Context, req CustomRequest) (*CreatedInvoice, error)
}

type SyncResult struct {
	Family Family `json:"family"`
	Synced int    `json:"synced"`
}

// FromTemplateRequest builds a new invoice from the one linked to a booking.
// A nil ExtraItems falls back to the extra work stored on the booking's
// completion record.
type FromTemplateRequest struct {
	BookingID  snowflake.ID
	ExtraItems *[]completiondomain.ExtraItem
}

type CustomRequest struct {
	Family        Family
	Title         string
	Amount        string
	CustomerEmail string
	BookingID     *snowflake.ID
}

type SalesLineItem struct {
	Name            string `json:"name"`
	TotalMinorUnits int64  `json:"total_minor_units"`
	Currency        string `json:"currency,omitempty"`
	Quantity        string `json:"quantity"`
}

// Detail is what a provider can read out of a cached raw payload.
type Detail struct {
	CustomerName   string
	Currency       string
	SalesLineItems []SalesLineItem
}

type InvoiceView struct {
	ID               string          `json:"id"`
	Family           Family          `json:"family"`
	ExternalID       string          `json:"external_id"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerName     string          `json:"customer_name,omitempty"`
	Amount           string          `json:"amount"`
	Currency         string          `json:"currency,omitempty"`
	LineItemsSummary string          `json:"line_items_summary"`
	SalesLineItems   []SalesLineItem `json:"sales_line_items,omitempty"`
	SyncedAt         time.Time       `json:"synced_at"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

type CreatedInvoice struct {
	Family           Family          `json:"family"`
	ExternalID       string          `json:"external_id"`
	OrderID          string          `json:"order_id,omitempty"`
	CustomerEmail    string          `json:"customer_email"`
	Amount           string          `json:"amount"`
	LineItemsSummary string          `json:"line_items_summary"`
	Raw              json.RawMessage `json:"raw"`
}

var (
	ErrInvalidOwner         = errors.New("invalid_owner")
	ErrInvalidFamily        = errors.New("invalid_family")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidExtraAmount   = errors.New("invalid_extra_amount")
	ErrInvalidBooking       = errors.New("invalid_booking")
	ErrInvalidExternalID    = errors.New("invalid_external_id")
	ErrNotFound             = errors.New("not_found")
	ErrNoInvoiceLinked      = errors.New("no_invoice_linked")
	ErrTemplateNotFound     = errors.New("template_not_found")
	ErrLocationsUnsupported = errors.New("locations_unsupported")
	ErrProviderNotFound     = errors.New("provider_not_found")
)
