package integration

import (
	"github.com/smallbiznis/hullbook/internal/integration/repository"
	"github.com/smallbiznis/hullbook/internal/integration/service"
	"go.uber.org/fx"
)

var Module = fx.Module("integration.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
