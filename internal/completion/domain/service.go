package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	BookingExists(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (bool, error)
	Upsert(ctx context.Context, db *gorm.DB, record *Record) error
	FindByBooking(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (*Record, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]Record, error)
	UpdateInvoice(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID, family, externalID string, updatedAt time.Time) (bool, error)
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*View, error)
	List(ctx context.Context) ([]View, error)
	Get(ctx context.Context, bookingID snowflake.ID) (*View, error)
	AttachInvoice(ctx context.Context, bookingID snowflake.ID, family, externalID string) error
}

// RecordRequest upserts a completion record. Nil fields keep the stored
// value.
type RecordRequest struct {
	BookingID         snowflake.ID
	Status            string
	Notes             *string
	ExtraWork         *ExtraWorkInput
	InvoiceFamily     *string
	InvoiceExternalID *string
}

type View struct {
	ID                string      `json:"id"`
	BookingID         string      `json:"booking_id"`
	Status            Status      `json:"status"`
	Notes             string      `json:"notes"`
	ExtraWork         []ExtraItem `json:"extra_work"`
	InvoiceFamily     string      `json:"invoice_family,omitempty"`
	InvoiceExternalID string      `json:"invoice_external_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ParseStatus normalizes operator input, accepting "completed" and
// "skipped" as aliases.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "completed", "done":
		return StatusYes, nil
	case "no", "skipped":
		return StatusNo, nil
	case "pending":
		return StatusPending, nil
	default:
		return "", ErrInvalidStatus
	}
}

var (
	ErrInvalidOwner   = errors.New("invalid_owner")
	ErrInvalidBooking = errors.New("invalid_booking")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrBookingMissing = errors.New("booking_not_found")
	ErrNotFound       = errors.New("not_found")
)
