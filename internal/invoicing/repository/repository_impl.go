package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert inserts or refreshes a cached invoice keyed by owner and external
// id. Table names come from Family.Table and never from input.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, family domain.Family, invoice *domain.CachedInvoice) error {
	table := family.Table()
	if table == "" {
		return domain.ErrInvalidFamily
	}

	return db.WithContext(ctx).Exec(
		`INSERT INTO `+table+` (
			id, owner_id, external_id, customer_email, amount,
			line_items_summary, raw_json, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, external_id)
		DO UPDATE SET customer_email = EXCLUDED.customer_email,
			amount = EXCLUDED.amount,
			line_items_summary = EXCLUDED.line_items_summary,
			raw_json = EXCLUDED.raw_json,
			synced_at = EXCLUDED.synced_at`,
		invoice.ID,
		invoice.OwnerID,
		invoice.ExternalID,
		invoice.CustomerEmail,
		invoice.Amount,
		invoice.LineItemsSummary,
		invoice.RawJSON,
		invoice.SyncedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, family domain.Family, ownerID snowflake.ID) ([]domain.CachedInvoice, error) {
	table := family.Table()
	if table == "" {
		return nil, domain.ErrInvalidFamily
	}

	var items []domain.CachedInvoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, external_id, customer_email, amount,
			line_items_summary, raw_json, synced_at
		 FROM `+table+`
		 WHERE owner_id = ?
		 ORDER BY synced_at DESC, id DESC`,
		ownerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, family domain.Family, ownerID snowflake.ID, externalID string) (*domain.CachedInvoice, error) {
	table := family.Table()
	if table == "" {
		return nil, domain.ErrInvalidFamily
	}

	var item domain.CachedInvoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, external_id, customer_email, amount,
			line_items_summary, raw_json, synced_at
		 FROM `+table+`
		 WHERE owner_id = ? AND external_id = ?
		 LIMIT 1`,
		ownerID,
		externalID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
