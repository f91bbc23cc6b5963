package push

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.push",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(log *zap.Logger) Provider {
	return NewLogProvider(log)
}
