package pdf

import (
	"context"

	"go.uber.org/fx"
)

// Provider renders invoice documents.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
