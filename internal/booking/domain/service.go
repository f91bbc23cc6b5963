package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"gorm.io/gorm"
)

const (
	SyncLookBack  = 30 * 24 * time.Hour
	SyncLookAhead = 7 * 24 * time.Hour
	DefaultWindow = 7 * 24 * time.Hour
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, booking *Booking) error
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, from, to time.Time) ([]Booking, error)
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*Booking, error)
}

type Service interface {
	Sync(ctx context.Context) (*SyncResult, error)
	List(ctx context.Context, req ListRequest) ([]View, error)
	Get(ctx context.Context, id snowflake.ID) (*View, error)
}

// Event is one calendar entry as returned by the calendar provider.
type Event struct {
	ExternalID string
	Title      string
	StartAt    time.Time
	EndAt      *time.Time
	Raw        json.RawMessage
}

type EventPage struct {
	Events        []Event
	NextPageToken string
	// Skipped counts provider entries without a usable start time.
	Skipped int
}

type EventQuery struct {
	CalendarID string
	TimeMin    time.Time
	TimeMax    time.Time
	PageToken  string
}

// Calendar opens an authorized session on one owner's calendar.
type Calendar interface {
	Open(ctx context.Context, creds integrationdomain.Credentials) (CalendarSession, error)
}

// CalendarSession lists events page by page. A session shares one token
// exchange and one API client across every page of a sync.
type CalendarSession interface {
	ListEvents(ctx context.Context, query EventQuery) (*EventPage, error)
}

type SyncResult struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

type ListRequest struct {
	From *time.Time
	To   *time.Time
}

type View struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	SyncedAt    time.Time  `json:"synced_at"`
}

var (
	ErrInvalidOwner = errors.New("invalid_owner")
	ErrInvalidRange = errors.New("invalid_range")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
