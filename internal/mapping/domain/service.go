package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, mapping *Mapping) error
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]Mapping, error)
	FindByBooking(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (*Mapping, error)
	Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (bool, error)
	BookingExists(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (bool, error)
	CacheContains(ctx context.Context, db *gorm.DB, family invoicingdomain.Family, ownerID snowflake.ID, externalID string) (bool, error)
}

type Service interface {
	Link(ctx context.Context, req LinkRequest) (*View, error)
	List(ctx context.Context) ([]View, error)
	Unlink(ctx context.Context, id snowflake.ID) error
	Resolve(ctx context.Context, bookingID snowflake.ID) (*Mapping, error)
}

// LinkRequest associates a booking with an invoice. An empty Family is
// resolved from the local caches.
type LinkRequest struct {
	BookingID         snowflake.ID
	ExternalInvoiceID string
	Family            string
}

type View struct {
	ID                string    `json:"id"`
	BookingID         string    `json:"booking_id"`
	Family            string    `json:"family"`
	ExternalInvoiceID string    `json:"external_invoice_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

var (
	ErrInvalidOwner     = errors.New("invalid_owner")
	ErrInvalidBooking   = errors.New("invalid_booking")
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrBookingMissing   = errors.New("booking_not_found")
	ErrNotFound         = errors.New("not_found")
)
