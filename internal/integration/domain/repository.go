package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*Settings, error)
	Upsert(ctx context.Context, db *gorm.DB, settings *Settings) error
}
