package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/hullbook/internal/analytics/domain"
	"github.com/smallbiznis/hullbook/pkg/money"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const customerSheet = "Customers"

// ExportByCustomer renders the by-customer report as an XLSX workbook.
func (s *Service) ExportByCustomer(ctx context.Context, req domain.RangeRequest) ([]byte, error) {
	report, err := s.ByCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", customerSheet); err != nil {
		return nil, err
	}

	headers := []any{"Customer", "Completed", "Revenue"}
	if err := f.SetSheetRow(customerSheet, "A1", &headers); err != nil {
		return nil, err
	}
	for i, customer := range report.Customers {
		revenue, _ := money.Parse(customer.Revenue)
		row := []any{customer.Customer, customer.Count, revenue.InexactFloat64()}
		if err := f.SetSheetRow(customerSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
