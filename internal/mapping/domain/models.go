package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Mapping links one booking to one cached invoice in a provider family.
type Mapping struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	OwnerID           snowflake.ID `gorm:"not null;uniqueIndex:ux_mapping_owner_booking,priority:1"`
	BookingID         snowflake.ID `gorm:"not null;uniqueIndex:ux_mapping_owner_booking,priority:2"`
	Family            string       `gorm:"type:text;not null"`
	ExternalInvoiceID string       `gorm:"type:text;not null"`
	CreatedAt         time.Time    `gorm:"not null"`
	UpdatedAt         time.Time    `gorm:"not null"`
}

func (Mapping) TableName() string { return "event_invoice_mappings" }
