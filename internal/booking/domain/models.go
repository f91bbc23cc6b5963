package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Booking is a calendar event cached locally so jobs can be marked and
// invoiced without calling the calendar provider.
type Booking struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	OwnerID    snowflake.ID   `gorm:"not null;uniqueIndex:ux_bookings_owner_external,priority:1;index:ix_bookings_owner_start,priority:1"`
	ExternalID string         `gorm:"type:text;not null;uniqueIndex:ux_bookings_owner_external,priority:2"`
	Title      string         `gorm:"type:text;not null"`
	StartAt    time.Time      `gorm:"not null;index:ix_bookings_owner_start,priority:2"`
	EndAt      *time.Time
	RawJSON    datatypes.JSON `gorm:"column:raw_json;not null"`
	SyncedAt   time.Time      `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }
