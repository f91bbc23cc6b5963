package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/internal/mapping/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, mapping *domain.Mapping) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO event_invoice_mappings (
			id, owner_id, booking_id, family, external_invoice_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, booking_id)
		DO UPDATE SET family = EXCLUDED.family,
			external_invoice_id = EXCLUDED.external_invoice_id,
			updated_at = EXCLUDED.updated_at`,
		mapping.ID,
		mapping.OwnerID,
		mapping.BookingID,
		mapping.Family,
		mapping.ExternalInvoiceID,
		mapping.CreatedAt,
		mapping.UpdatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]domain.Mapping, error) {
	var items []domain.Mapping
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, booking_id, family, external_invoice_id, created_at, updated_at
		 FROM event_invoice_mappings
		 WHERE owner_id = ?
		 ORDER BY updated_at DESC, id DESC`,
		ownerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByBooking(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (*domain.Mapping, error) {
	var item domain.Mapping
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, booking_id, family, external_invoice_id, created_at, updated_at
		 FROM event_invoice_mappings
		 WHERE owner_id = ? AND booking_id = ?
		 LIMIT 1`,
		ownerID,
		bookingID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM event_invoice_mappings WHERE owner_id = ? AND id = ?`,
		ownerID,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) BookingExists(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM bookings WHERE owner_id = ? AND id = ?`,
		ownerID,
		bookingID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CacheContains(ctx context.Context, db *gorm.DB, family invoicingdomain.Family, ownerID snowflake.ID, externalID string) (bool, error) {
	table := family.Table()
	if table == "" {
		return false, invoicingdomain.ErrInvalidFamily
	}

	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM `+table+` WHERE owner_id = ? AND external_id = ?`,
		ownerID,
		externalID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
