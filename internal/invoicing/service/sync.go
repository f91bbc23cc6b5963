package service

import (
	"context"
	"encoding/json"
	"errors"

	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/pkg/upstream"
	"go.uber.org/zap"
)

// Sync pulls every page from the family's provider and upserts the
// normalized rows. Rows written before an upstream failure stay written.
func (s *Service) Sync(ctx context.Context, family domain.Family) (*domain.SyncResult, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	provider, creds, err := s.connect(ctx, family)
	if err != nil {
		s.metrics.RecordSyncFailure(family.String(), failureReason(err))
		return nil, err
	}

	var docs []json.RawMessage
	cursor := ""
	pages := 0
	for {
		page, err := provider.ListPage(ctx, creds, cursor)
		if err != nil {
			s.metrics.RecordSyncFailure(family.String(), failureReason(err))
			s.log.Warn("invoice sync page failed",
				zap.String("family", family.String()),
				zap.String("owner_id", ownerID.String()),
				zap.Int("pages", pages),
				zap.Error(err),
			)
			return nil, err
		}
		pages++
		docs = append(docs, page.Documents...)
		if page.NextCursor == "" {
			break
		}
		if page.NextCursor == cursor {
			s.log.Warn("invoice sync cursor did not advance", zap.String("family", family.String()))
			break
		}
		cursor = page.NextCursor
	}

	records, err := provider.Normalize(ctx, creds, docs)
	if err != nil {
		s.metrics.RecordSyncFailure(family.String(), failureReason(err))
		return nil, err
	}

	now := s.clock.Now().UTC()
	synced := 0
	for _, record := range records {
		if err := s.repo.Upsert(ctx, s.db, family, s.cacheRow(ownerID, record, now)); err != nil {
			s.metrics.RecordSync(family.String(), synced)
			return nil, err
		}
		synced++
	}

	s.metrics.RecordSync(family.String(), synced)
	s.log.Info("invoice sync complete",
		zap.String("family", family.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("pages", pages),
		zap.Int("documents", len(docs)),
		zap.Int("synced", synced),
	)
	return &domain.SyncResult{Family: family, Synced: synced}, nil
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, integrationdomain.ErrNotConfigured):
		return "not_configured"
	default:
		if _, ok := upstream.As(err); ok {
			return "upstream"
		}
		return "internal"
	}
}
