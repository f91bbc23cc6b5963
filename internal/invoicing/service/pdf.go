package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/internal/providers/pdf"
	"github.com/smallbiznis/hullbook/pkg/money"
)

// RenderPDF prints a cached invoice for sharing by hand.
func (s *Service) RenderPDF(ctx context.Context, family domain.Family, externalID string) ([]byte, error) {
	item, provider, err := s.find(ctx, family, externalID)
	if err != nil {
		return nil, err
	}
	detail := provider.Describe(*item)
	cfg := s.invoicing.Get()

	return s.pdf.GenerateInvoice(ctx, pdf.InvoiceData{
		BusinessName:  cfg.ChannelName,
		InvoiceNumber: item.ExternalID,
		Provider:      family.String(),
		IssueDate:     item.SyncedAt.UTC().Format("2006-01-02"),
		BillToName:    detail.CustomerName,
		BillToEmail:   item.CustomerEmail,
		Items: lo.Map(detail.SalesLineItems, func(line domain.SalesLineItem, _ int) pdf.InvoiceItem {
			return pdf.InvoiceItem{
				Description: line.Name,
				Qty:         line.Quantity,
				Amount:      money.FromMinor(line.TotalMinorUnits),
			}
		}),
		Currency: lo.Ternary(detail.Currency != "", detail.Currency, cfg.Currency),
		Total:    item.Amount,
		Summary:  item.LineItemsSummary,
	})
}
