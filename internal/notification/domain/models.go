package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultPlatform = "ios"

// PushToken is one registered device for an owner.
type PushToken struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OwnerID     snowflake.ID `gorm:"not null;uniqueIndex:ux_push_tokens_owner_device,priority:1"`
	DeviceToken string       `gorm:"type:text;not null;uniqueIndex:ux_push_tokens_owner_device,priority:2"`
	Platform    string       `gorm:"type:text;not null"`
	CreatedAt   time.Time    `gorm:"not null"`
}

func (PushToken) TableName() string { return "push_tokens" }

// OwnerCount is the number of bookings an owner completed in a window.
type OwnerCount struct {
	OwnerID snowflake.ID
	Count   int
}
