package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, token *PushToken) error
	FindByDevice(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, deviceToken string) (*PushToken, error)
	ListDeviceTokens(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]string, error)
	CompletedCounts(ctx context.Context, db *gorm.DB, from, to time.Time) ([]OwnerCount, error)
}

type Service interface {
	RegisterDevice(ctx context.Context, req RegisterRequest) (*DeviceView, error)
	SendDigest(ctx context.Context, day time.Time) (*DigestResult, error)
}

type RegisterRequest struct {
	Token    string
	Platform string
}

type DeviceView struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// DigestResult tallies one digest run. Owners without devices are skipped.
type DigestResult struct {
	Owners  int
	Sent    int
	Skipped int
	Failed  int
}

var (
	ErrInvalidOwner = errors.New("invalid_owner")
	ErrInvalidToken = errors.New("invalid_device_token")
)
