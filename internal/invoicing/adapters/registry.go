package adapters

import (
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/invoicing/adapters/square"
	"github.com/smallbiznis/hullbook/internal/invoicing/adapters/squarespace"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Registry holds one provider per invoice family.
type Registry struct {
	providers map[domain.Family]domain.Provider
}

func NewRegistry(providers ...domain.Provider) *Registry {
	registry := &Registry{providers: map[domain.Family]domain.Provider{}}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		registry.providers[provider.Family()] = provider
	}
	return registry
}

func (r *Registry) ProviderExists(family domain.Family) bool {
	if r == nil {
		return false
	}
	_, ok := r.providers[family]
	return ok
}

func (r *Registry) Provider(family domain.Family) (domain.Provider, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	provider, ok := r.providers[family]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return provider, nil
}

type RegistryParams struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock `optional:"true"`
}

func NewRegistryFromConfig(p RegistryParams) *Registry {
	return NewRegistry(
		square.NewFromConfig(p.Cfg, p.Log),
		squarespace.NewFromConfig(p.Cfg, p.Clock, p.Log),
	)
}
