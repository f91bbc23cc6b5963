package invoicing

import (
	"github.com/smallbiznis/hullbook/internal/invoicing/adapters"
	"github.com/smallbiznis/hullbook/internal/invoicing/repository"
	"github.com/smallbiznis/hullbook/internal/invoicing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoicing.service",
	fx.Provide(adapters.NewRegistryFromConfig),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
