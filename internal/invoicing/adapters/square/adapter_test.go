package square

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testCreds = integrationdomain.Credentials{
	SquareAccessToken: "EAAA-test",
	SquareLocationID:  "L1",
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Version: "2024-01-18"}, zap.NewNop())
}

func TestListPageSendsLocationAndCursor(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/invoices", r.URL.Path)
		assert.Equal(t, "L1", r.URL.Query().Get("location_id"))
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		assert.Equal(t, "c1", r.URL.Query().Get("cursor"))
		assert.Equal(t, "Bearer EAAA-test", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-01-18", r.Header.Get("Square-Version"))
		_, _ = io.WriteString(w, `{"invoices":[{"id":"inv-1"}],"cursor":"c2"}`)
	})

	page, err := adapter.ListPage(context.Background(), testCreds, "c1")
	require.NoError(t, err)
	assert.Len(t, page.Documents, 1)
	assert.Equal(t, "c2", page.NextCursor)
}

func TestNormalizeOverlaysOrderLineItems(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/orders/ord-1", r.URL.Path)
		_, _ = io.WriteString(w, `{"order":{"id":"ord-1","line_items":[
			{"name":"Hull wash","quantity":"1","base_price_money":{"amount":4000,"currency":"USD"}},
			{"name":"Wax","quantity":"1","base_price_money":{"amount":200,"currency":"USD"}}
		]}}`)
	})

	docs := []json.RawMessage{json.RawMessage(`{
		"id":"inv-1","order_id":"ord-1","title":"Cleaning",
		"next_payment_amount_money":{"amount":4200,"currency":"USD"},
		"primary_recipient":{"email_address":" skipper@example.com "}
	}`)}

	records, err := adapter.Normalize(context.Background(), testCreds, docs)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "inv-1", record.ExternalID)
	assert.Equal(t, "skipper@example.com", record.CustomerEmail)
	assert.Equal(t, "42.00", record.Amount)
	assert.Equal(t, "Hull wash; Wax", record.Summary)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(record.Raw, &raw))
	assert.Len(t, raw["line_items"], 2)
}

func TestNormalizeFallsBackToTitleWhenOrderFails(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"code":"NOT_FOUND","detail":"order missing"}]}`)
	})

	docs := []json.RawMessage{
		json.RawMessage(`{"id":"inv-1","order_id":"ord-1","title":"Bottom paint",
			"payment_requests":[{"computed_amount_money":{"amount":1050}},{"total_completed_amount_money":{"amount":50}}]}`),
		json.RawMessage(`{"id":"inv-2","order_id":"ord-2"}`),
	}

	records, err := adapter.Normalize(context.Background(), testCreds, docs)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Bottom paint", records[0].Summary)
	assert.Equal(t, "11.00", records[0].Amount)
	assert.Equal(t, "Invoice", records[1].Summary)
	assert.Equal(t, "0.00", records[1].Amount)
}

func TestUpstreamErrorsCarryStatusAndDetail(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED","detail":"This request could not be authorized."}]}`)
	})

	_, err := adapter.ListPage(context.Background(), testCreds, "")
	upErr, ok := upstream.As(err)
	require.True(t, ok)
	assert.Equal(t, "square", upErr.Provider)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, "This request could not be authorized.", upErr.Detail)
}

func TestInBandErrorsAreUpstreamErrors(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":[{"code":"BAD_REQUEST","detail":"location_id is invalid"}]}`)
	})

	_, err := adapter.ListPage(context.Background(), testCreds, "")
	upErr, ok := upstream.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Equal(t, "location_id is invalid", upErr.Detail)
}

func TestTemplateLineItemsFallsBackToStoredTotal(t *testing.T) {
	var calls atomic.Int32
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"order":{"id":"ord-1","line_items":[]}}`)
	})

	template := domain.CachedInvoice{
		Amount:  "85.00",
		RawJSON: []byte(`{"id":"inv-1","order_id":"ord-1"}`),
	}
	items, err := adapter.TemplateLineItems(context.Background(), testCreds, template, "Boat Cleaning")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []domain.LineItem{{Name: "Boat Cleaning", Quantity: "1", UnitAmountMinor: 8500}}, items)
}

func TestCreateOrderAndInvoice(t *testing.T) {
	var orderBody createOrderRequest
	var invoiceBody createInvoiceRequest

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/orders":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&orderBody))
			_, _ = io.WriteString(w, `{"order":{"id":"ord-9","line_items":[{"name":"Boat Cleaning","quantity":"1","base_price_money":{"amount":8500,"currency":"USD"}}]}}`)
		case "/v2/invoices":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&invoiceBody))
			_, _ = io.WriteString(w, `{"invoice":{"id":"inv-9","order_id":"ord-9","payment_requests":[{"request_type":"BALANCE","computed_amount_money":{"amount":8750,"currency":"USD"}}]}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	created, err := adapter.CreateOrderAndInvoice(context.Background(), testCreds, domain.SubmitRequest{
		Title:          "Boat Cleaning",
		CustomerEmail:  "skipper@example.com",
		DueDate:        "2026-10-25",
		Reference:      "boat-cleaning-123",
		IdempotencyKey: "01JABC",
		Items: []domain.LineItem{
			{Name: "Boat Cleaning", Quantity: "1", UnitAmountMinor: 8500},
			{Name: "Wax", Quantity: "1", UnitAmountMinor: 250},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "01JABC-order", orderBody.IdempotencyKey)
	assert.Equal(t, "L1", orderBody.Order.LocationID)
	assert.Len(t, orderBody.Order.LineItems, 2)
	assert.Equal(t, "01JABC-invoice", invoiceBody.IdempotencyKey)
	assert.Equal(t, "ord-9", invoiceBody.Invoice.OrderID)
	assert.Equal(t, "SHARE_MANUALLY", invoiceBody.Invoice.DeliveryMethod)
	assert.True(t, invoiceBody.Invoice.AcceptedPaymentMethods.Card)
	assert.False(t, invoiceBody.Invoice.AcceptedPaymentMethods.BankAccount)
	require.Len(t, invoiceBody.Invoice.PaymentRequests, 1)
	assert.Equal(t, "BALANCE", invoiceBody.Invoice.PaymentRequests[0].RequestType)
	assert.Equal(t, "2026-10-25", invoiceBody.Invoice.PaymentRequests[0].DueDate)

	assert.Equal(t, "inv-9", created.ExternalID)
	assert.Equal(t, "ord-9", created.OrderID)
	assert.Equal(t, "87.50", created.Amount)
	assert.Equal(t, "Boat Cleaning; Wax", created.Summary)
	assert.Equal(t, "skipper@example.com", created.CustomerEmail)
}

func TestDescribeReadsRecipientAndLineItems(t *testing.T) {
	adapter := New(Config{}, zap.NewNop())
	detail := adapter.Describe(domain.CachedInvoice{RawJSON: []byte(`{
		"id":"inv-1",
		"primary_recipient":{"given_name":"Ada","family_name":"Lovelace"},
		"line_items":[{"name":"Hull wash","variation_total_price_money":{"amount":4000,"currency":"USD"}}]
	}`)})

	assert.Equal(t, "Ada Lovelace", detail.CustomerName)
	assert.Equal(t, "USD", detail.Currency)
	require.Len(t, detail.SalesLineItems, 1)
	assert.Equal(t, domain.SalesLineItem{Name: "Hull wash", TotalMinorUnits: 4000, Currency: "USD", Quantity: "1"}, detail.SalesLineItems[0])
}

func TestLocationsRequiresToken(t *testing.T) {
	adapter := New(Config{BaseURL: "http://square.invalid"}, zap.NewNop())
	_, err := adapter.Locations(context.Background(), integrationdomain.Credentials{})
	assert.ErrorIs(t, err, integrationdomain.ErrNotConfigured)
}
