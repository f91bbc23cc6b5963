package mapping

import (
	"github.com/smallbiznis/hullbook/internal/mapping/repository"
	"github.com/smallbiznis/hullbook/internal/mapping/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mapping.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
