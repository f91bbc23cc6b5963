package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInvoiceProducesPDF(t *testing.T) {
	doc, err := New().GenerateInvoice(context.Background(), InvoiceData{
		BusinessName:  "Hullbook",
		InvoiceNumber: "inv-1",
		Provider:      "square",
		IssueDate:     "2026-10-18",
		BillToEmail:   "skipper@example.com",
		Items:         []InvoiceItem{{Description: "Hull wash", Qty: "1", Amount: "40.00"}},
		Currency:      "USD",
		Total:         "40.00",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestGenerateInvoiceRequiresNumber(t *testing.T) {
	_, err := New().GenerateInvoice(context.Background(), InvoiceData{})
	assert.ErrorIs(t, err, ErrEmptyInvoice)
}
