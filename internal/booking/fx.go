package booking

import (
	"github.com/smallbiznis/hullbook/internal/booking/repository"
	"github.com/smallbiznis/hullbook/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
