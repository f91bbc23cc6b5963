package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusYes     Status = "yes"
	StatusNo      Status = "no"
)

// Record is the operator's outcome for one booking.
type Record struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	OwnerID           snowflake.ID `gorm:"not null;uniqueIndex:ux_completion_owner_booking,priority:1"`
	BookingID         snowflake.ID `gorm:"not null;uniqueIndex:ux_completion_owner_booking,priority:2"`
	Status            Status       `gorm:"type:text;not null"`
	Notes             *string      `gorm:"type:text"`
	ExtraWork         *string      `gorm:"type:text"`
	InvoiceFamily     *string      `gorm:"type:text"`
	InvoiceExternalID *string      `gorm:"type:text"`
	CreatedAt         time.Time    `gorm:"not null"`
	UpdatedAt         time.Time    `gorm:"not null"`
}

func (Record) TableName() string { return "completion_records" }
