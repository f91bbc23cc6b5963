package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/booking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (id, owner_id, external_id, title, start_at, end_at, raw_json, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, external_id)
		DO UPDATE SET title = EXCLUDED.title,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			raw_json = EXCLUDED.raw_json,
			synced_at = EXCLUDED.synced_at`,
		booking.ID,
		booking.OwnerID,
		booking.ExternalID,
		booking.Title,
		booking.StartAt,
		booking.EndAt,
		booking.RawJSON,
		booking.SyncedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, from, to time.Time) ([]domain.Booking, error) {
	var items []domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, external_id, title, start_at, end_at, raw_json, synced_at
		 FROM bookings
		 WHERE owner_id = ? AND start_at >= ? AND start_at <= ?
		 ORDER BY start_at ASC, id ASC`,
		ownerID,
		from,
		to,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*domain.Booking, error) {
	var item domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, external_id, title, start_at, end_at, raw_json, synced_at
		 FROM bookings
		 WHERE owner_id = ? AND id = ?
		 LIMIT 1`,
		ownerID,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
