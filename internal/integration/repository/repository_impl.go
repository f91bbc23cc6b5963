package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/integration/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*domain.Settings, error) {
	var item domain.Settings
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, google_refresh_token, google_calendar_id,
			squarespace_api_key, squarespace_site_id, square_access_token,
			square_location_id, created_at, updated_at
		 FROM integration_settings
		 WHERE owner_id = ?
		 LIMIT 1`,
		ownerID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO integration_settings (
			id, owner_id, google_refresh_token, google_calendar_id,
			squarespace_api_key, squarespace_site_id, square_access_token,
			square_location_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id)
		DO UPDATE SET google_refresh_token = EXCLUDED.google_refresh_token,
			google_calendar_id = EXCLUDED.google_calendar_id,
			squarespace_api_key = EXCLUDED.squarespace_api_key,
			squarespace_site_id = EXCLUDED.squarespace_site_id,
			square_access_token = EXCLUDED.square_access_token,
			square_location_id = EXCLUDED.square_location_id,
			updated_at = EXCLUDED.updated_at`,
		settings.ID,
		settings.OwnerID,
		settings.GoogleRefreshToken,
		settings.GoogleCalendarID,
		settings.SquarespaceAPIKey,
		settings.SquarespaceSiteID,
		settings.SquareAccessToken,
		settings.SquareLocationID,
		settings.CreatedAt,
		settings.UpdatedAt,
	).Error
}
