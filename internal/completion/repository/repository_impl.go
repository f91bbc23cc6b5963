package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/completion/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const recordColumns = `id, owner_id, booking_id, status, notes, extra_work,
	invoice_family, invoice_external_id, created_at, updated_at`

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

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO completion_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, booking_id)
		DO UPDATE SET status = EXCLUDED.status,
			notes = COALESCE(EXCLUDED.notes, completion_records.notes),
			extra_work = COALESCE(EXCLUDED.extra_work, completion_records.extra_work),
			invoice_family = COALESCE(EXCLUDED.invoice_family, completion_records.invoice_family),
			invoice_external_id = COALESCE(EXCLUDED.invoice_external_id, completion_records.invoice_external_id),
			updated_at = EXCLUDED.updated_at`,
		record.ID,
		record.OwnerID,
		record.BookingID,
		record.Status,
		record.Notes,
		record.ExtraWork,
		record.InvoiceFamily,
		record.InvoiceExternalID,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByBooking(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID) (*domain.Record, error) {
	var item domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+`
		 FROM completion_records
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

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]domain.Record, error) {
	var items []domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+`
		 FROM completion_records
		 WHERE owner_id = ?
		 ORDER BY updated_at DESC, id DESC`,
		ownerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateInvoice(ctx context.Context, db *gorm.DB, ownerID, bookingID snowflake.ID, family, externalID string, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE completion_records
		 SET invoice_family = ?, invoice_external_id = ?, updated_at = ?
		 WHERE owner_id = ? AND booking_id = ?`,
		family,
		externalID,
		updatedAt,
		ownerID,
		bookingID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
