package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Settings holds one owner's provider credentials. Empty or NULL columns fall
// back to the process defaults at resolution time.
type Settings struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	OwnerID            snowflake.ID `json:"owner_id" gorm:"not null;uniqueIndex:ux_integration_settings_owner"`
	GoogleRefreshToken *string      `json:"-" gorm:"type:text"`
	GoogleCalendarID   *string      `json:"google_calendar_id,omitempty" gorm:"type:text"`
	SquarespaceAPIKey  *string      `json:"-" gorm:"type:text"`
	SquarespaceSiteID  *string      `json:"squarespace_site_id,omitempty" gorm:"type:text"`
	SquareAccessToken  *string      `json:"-" gorm:"type:text"`
	SquareLocationID   *string      `json:"square_location_id,omitempty" gorm:"type:text"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null"`
}

func (Settings) TableName() string { return "integration_settings" }
