package completion

import (
	"github.com/smallbiznis/hullbook/internal/completion/repository"
	"github.com/smallbiznis/hullbook/internal/completion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("completion.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
