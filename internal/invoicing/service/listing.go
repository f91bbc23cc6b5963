package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
)

func (s *Service) List(ctx context.Context, family domain.Family) ([]domain.InvoiceView, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	provider, err := s.registry.Provider(family)
	if err != nil {
		return nil, domain.ErrInvalidFamily
	}

	items, err := s.repo.List(ctx, s.db, family, ownerID)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(item domain.CachedInvoice, _ int) domain.InvoiceView {
		return toView(family, provider, item, false)
	}), nil
}

func (s *Service) Get(ctx context.Context, family domain.Family, externalID string) (*domain.InvoiceView, error) {
	item, provider, err := s.find(ctx, family, externalID)
	if err != nil {
		return nil, err
	}
	view := toView(family, provider, *item, true)
	return &view, nil
}

// Locations lists the Square business locations visible to the owner's
// token.
func (s *Service) Locations(ctx context.Context) ([]domain.Location, error) {
	if _, err := ownerFrom(ctx); err != nil {
		return nil, err
	}
	provider, err := s.registry.Provider(domain.FamilySquare)
	if err != nil {
		return nil, err
	}
	lister, ok := provider.(domain.LocationLister)
	if !ok {
		return nil, domain.ErrLocationsUnsupported
	}
	creds, err := s.integrations.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return lister.Locations(ctx, creds)
}

func (s *Service) find(ctx context.Context, family domain.Family, externalID string) (*domain.CachedInvoice, domain.Provider, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, nil, err
	}
	provider, err := s.registry.Provider(family)
	if err != nil {
		return nil, nil, domain.ErrInvalidFamily
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil, domain.ErrInvalidExternalID
	}

	item, err := s.repo.FindByExternalID(ctx, s.db, family, ownerID, externalID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, domain.ErrNotFound
	}
	return item, provider, nil
}

func toView(family domain.Family, provider domain.Provider, item domain.CachedInvoice, withRaw bool) domain.InvoiceView {
	detail := provider.Describe(item)
	view := domain.InvoiceView{
		ID:               item.ID.String(),
		Family:           family,
		ExternalID:       item.ExternalID,
		CustomerEmail:    item.CustomerEmail,
		CustomerName:     detail.CustomerName,
		Amount:           item.Amount,
		Currency:         detail.Currency,
		LineItemsSummary: item.LineItemsSummary,
		SalesLineItems:   detail.SalesLineItems,
		SyncedAt:         item.SyncedAt,
	}
	if withRaw && len(item.RawJSON) > 0 {
		view.Raw = json.RawMessage(item.RawJSON)
	}
	return view
}
