package providers

import (
	"github.com/smallbiznis/hullbook/internal/providers/calendar/google"
	"github.com/smallbiznis/hullbook/internal/providers/pdf"
	"github.com/smallbiznis/hullbook/internal/providers/push"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	fx.Provide(google.NewFromConfig),
	push.Module,
	pdf.Module,
)
