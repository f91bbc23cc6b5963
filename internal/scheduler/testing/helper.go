// Package testing seeds the tables the daily digest reads.
package testing

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	notificationdomain "github.com/smallbiznis/hullbook/internal/notification/domain"
	"gorm.io/gorm"
)

type DigestSeeder struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewDigestSeeder(db *gorm.DB, node *snowflake.Node) *DigestSeeder {
	return &DigestSeeder{db: db, node: node}
}

// Completed records a finished booking for owner at the given instant.
func (s *DigestSeeder) Completed(ctx context.Context, ownerID snowflake.ID, at time.Time) error {
	return s.completion(ctx, ownerID, completiondomain.StatusYes, at)
}

// Declined records a booking the operator marked as not done.
func (s *DigestSeeder) Declined(ctx context.Context, ownerID snowflake.ID, at time.Time) error {
	return s.completion(ctx, ownerID, completiondomain.StatusNo, at)
}

func (s *DigestSeeder) completion(ctx context.Context, ownerID snowflake.ID, status completiondomain.Status, at time.Time) error {
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO completion_records (id, owner_id, booking_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.node.Generate(),
		ownerID,
		s.node.Generate(),
		string(status),
		at.UTC(),
		at.UTC(),
	).Error
}

// Device registers a push token for owner.
func (s *DigestSeeder) Device(ctx context.Context, ownerID snowflake.ID, token string) error {
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO push_tokens (id, owner_id, device_token, platform, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.node.Generate(),
		ownerID,
		token,
		notificationdomain.DefaultPlatform,
		time.Now().UTC(),
	).Error
}
