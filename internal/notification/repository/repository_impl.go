package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert registers a device once per owner. Re-registering refreshes the
// platform only.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, token *domain.PushToken) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO push_tokens (id, owner_id, device_token, platform, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, device_token)
		 DO UPDATE SET platform = EXCLUDED.platform`,
		token.ID,
		token.OwnerID,
		token.DeviceToken,
		token.Platform,
		token.CreatedAt,
	).Error
}

func (r *repo) FindByDevice(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, deviceToken string) (*domain.PushToken, error) {
	var item domain.PushToken
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, device_token, platform, created_at
		 FROM push_tokens
		 WHERE owner_id = ? AND device_token = ?
		 LIMIT 1`,
		ownerID,
		deviceToken,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListDeviceTokens(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]string, error) {
	var tokens []string
	err := db.WithContext(ctx).Raw(
		`SELECT device_token FROM push_tokens WHERE owner_id = ? ORDER BY created_at ASC, id ASC`,
		ownerID,
	).Scan(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// CompletedCounts groups completed bookings recorded in [from, to) by owner.
func (r *repo) CompletedCounts(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.OwnerCount, error) {
	var counts []domain.OwnerCount
	err := db.WithContext(ctx).Raw(
		`SELECT owner_id, COUNT(*) AS count
		 FROM completion_records
		 WHERE status = ? AND created_at >= ? AND created_at < ?
		 GROUP BY owner_id
		 ORDER BY owner_id ASC`,
		string(completiondomain.StatusYes),
		from,
		to,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
