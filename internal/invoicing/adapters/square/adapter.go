// Package square implements the Square invoice family: invoices are listed
// from the Invoices API and created as an order followed by an invoice.
package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/smallbiznis/hullbook/internal/config"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/pkg/money"
	"go.uber.org/zap"
)

const (
	pageLimit        = "200"
	defaultItemName  = "Line item"
	defaultSummary   = "Invoice"
	defaultCurrency  = "USD"
	requestBalance   = "BALANCE"
	shareManually    = "SHARE_MANUALLY"
	orderKeySuffix   = "-order"
	invoiceKeySuffix = "-invoice"
)

type Config struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

type Adapter struct {
	client *client
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Adapter {
	return &Adapter{
		client: newClient(cfg.BaseURL, cfg.Version, cfg.Timeout),
		log:    log.Named("invoicing.square"),
	}
}

func NewFromConfig(cfg config.Config, log *zap.Logger) *Adapter {
	return New(Config{
		BaseURL: cfg.Providers.SquareURL(),
		Version: cfg.Providers.SquareVersion,
		Timeout: time.Duration(cfg.Providers.HTTPTimeoutSeconds) * time.Second,
	}, log)
}

func (a *Adapter) Family() domain.Family { return domain.FamilySquare }

func (a *Adapter) Validate(creds integrationdomain.Credentials) error {
	return creds.RequireSquare()
}

func (a *Adapter) ListPage(ctx context.Context, creds integrationdomain.Credentials, cursor string) (*domain.Page, error) {
	query := url.Values{}
	query.Set("location_id", creds.SquareLocationID)
	query.Set("limit", pageLimit)
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var resp listInvoicesResponse
	if err := a.client.do(ctx, creds.SquareAccessToken, http.MethodGet, "/v2/invoices", query, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.Page{Documents: resp.Invoices, NextCursor: resp.Cursor}, nil
}

// Normalize turns invoices into cache records. Invoices backed by an order
// get the order's line items copied into the stored payload; an order that
// cannot be fetched only degrades the summary.
func (a *Adapter) Normalize(ctx context.Context, creds integrationdomain.Credentials, docs []json.RawMessage) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(docs))
	for _, doc := range docs {
		var inv invoice
		if err := json.Unmarshal(doc, &inv); err != nil {
			return nil, fmt.Errorf("decode square invoice: %w", err)
		}
		if inv.ID == "" {
			continue
		}

		summary := strings.TrimSpace(inv.Title)
		raw := doc
		if inv.OrderID != "" {
			ord, err := a.fetchOrder(ctx, creds, inv.OrderID)
			switch {
			case err != nil:
				a.log.Warn("square order fetch failed",
					zap.String("invoice_id", inv.ID),
					zap.String("order_id", inv.OrderID),
					zap.Error(err),
				)
			case len(ord.LineItems) > 0:
				if overlaid, err := overlayLineItems(doc, ord.LineItems); err == nil {
					raw = overlaid
				}
				summary = itemNames(ord.LineItems)
			}
		}
		if summary == "" {
			summary = defaultSummary
		}

		records = append(records, domain.Record{
			ExternalID:    inv.ID,
			CustomerEmail: recipientEmail(inv),
			Amount:        money.FromMinor(invoiceAmountMinor(inv)),
			Summary:       summary,
			Raw:           raw,
		})
	}
	return records, nil
}

// TemplateLineItems re-reads the template's order so prices reflect what
// Square holds. Without an order, or with an empty one, a single line at the
// template total stands in.
func (a *Adapter) TemplateLineItems(ctx context.Context, creds integrationdomain.Credentials, template domain.CachedInvoice, fallbackTitle string) ([]domain.LineItem, error) {
	var inv invoice
	if err := json.Unmarshal(template.RawJSON, &inv); err != nil {
		return nil, fmt.Errorf("decode template invoice: %w", err)
	}

	var totalMinor int64
	if inv.OrderID != "" {
		ord, err := a.fetchOrder(ctx, creds, inv.OrderID)
		if err != nil {
			a.log.Warn("square template order fetch failed",
				zap.String("order_id", inv.OrderID),
				zap.Error(err),
			)
		} else {
			if len(ord.LineItems) > 0 {
				return lo.Map(ord.LineItems, func(item lineItem, _ int) domain.LineItem {
					unit, _ := item.BasePriceMoney.minor()
					return domain.LineItem{
						Name:            lo.Ternary(item.Name != "", item.Name, defaultItemName),
						Quantity:        lo.Ternary(item.Quantity != "", item.Quantity, "1"),
						UnitAmountMinor: unit,
					}
				}), nil
			}
			totalMinor, _ = ord.TotalMoney.minor()
		}
	}

	if totalMinor == 0 {
		if stored, err := money.ToMinor(template.Amount); err == nil {
			totalMinor = stored
		} else {
			totalMinor = invoiceAmountMinor(inv)
		}
	}
	return []domain.LineItem{{Name: fallbackTitle, Quantity: "1", UnitAmountMinor: totalMinor}}, nil
}

func (a *Adapter) CreateOrderAndInvoice(ctx context.Context, creds integrationdomain.Credentials, req domain.SubmitRequest) (*domain.Created, error) {
	currency := lo.Ternary(req.Currency != "", req.Currency, defaultCurrency)

	orderReq := createOrderRequest{
		Order: orderPayload{
			LocationID:  creds.SquareLocationID,
			ReferenceID: req.Reference,
			LineItems: lo.Map(req.Items, func(item domain.LineItem, _ int) lineItemPayload {
				amount := item.UnitAmountMinor
				return lineItemPayload{
					Name:           item.Name,
					Quantity:       lo.Ternary(item.Quantity != "", item.Quantity, "1"),
					BasePriceMoney: moneyValue{Amount: &amount, Currency: currency},
				}
			}),
		},
		IdempotencyKey: req.IdempotencyKey + orderKeySuffix,
	}

	var orderResp orderResponse
	if err := a.client.do(ctx, creds.SquareAccessToken, http.MethodPost, "/v2/orders", nil, orderReq, &orderResp); err != nil {
		return nil, err
	}
	var created order
	if err := json.Unmarshal(orderResp.Order, &created); err != nil || created.ID == "" {
		return nil, errors.New("square did not return an order")
	}

	invoiceReq := createInvoiceRequest{
		Invoice: invoicePayload{
			LocationID: creds.SquareLocationID,
			OrderID:    created.ID,
			PaymentRequests: []paymentRequest{
				{RequestType: requestBalance, DueDate: req.DueDate},
			},
			DeliveryMethod:         shareManually,
			AcceptedPaymentMethods: acceptedPaymentMethods{Card: true},
			Title:                  req.Title,
		},
		IdempotencyKey: req.IdempotencyKey + invoiceKeySuffix,
	}

	var invoiceResp invoiceResponse
	if err := a.client.do(ctx, creds.SquareAccessToken, http.MethodPost, "/v2/invoices", nil, invoiceReq, &invoiceResp); err != nil {
		return nil, err
	}
	var inv invoice
	if err := json.Unmarshal(invoiceResp.Invoice, &inv); err != nil || inv.ID == "" {
		return nil, errors.New("square did not return an invoice")
	}

	raw := json.RawMessage(invoiceResp.Invoice)
	if len(created.LineItems) > 0 {
		if overlaid, err := overlayLineItems(raw, created.LineItems); err == nil {
			raw = overlaid
		}
	}

	amountMinor := invoiceAmountMinor(inv)
	if amountMinor == 0 {
		amountMinor = domain.TotalMinor(req.Items)
	}

	return &domain.Created{
		Record: domain.Record{
			ExternalID:    inv.ID,
			CustomerEmail: lo.Ternary(req.CustomerEmail != "", req.CustomerEmail, recipientEmail(inv)),
			Amount:        money.FromMinor(amountMinor),
			Summary:       lineItemsSummary(req.Items),
			Raw:           raw,
		},
		OrderID: created.ID,
	}, nil
}

func (a *Adapter) Describe(cached domain.CachedInvoice) domain.Detail {
	var inv invoice
	if err := json.Unmarshal(cached.RawJSON, &inv); err != nil {
		return domain.Detail{}
	}

	detail := domain.Detail{}
	if inv.PrimaryRecipient != nil {
		detail.CustomerName = strings.TrimSpace(strings.Join(lo.Compact([]string{
			strings.TrimSpace(inv.PrimaryRecipient.GivenName),
			strings.TrimSpace(inv.PrimaryRecipient.FamilyName),
		}), " "))
	}

	switch {
	case len(inv.LineItems) > 0:
		detail.SalesLineItems = lo.Map(inv.LineItems, func(item lineItem, _ int) domain.SalesLineItem {
			total := firstMoney(item.TotalMoney, item.VariationTotalPriceMoney, item.BasePriceMoney)
			amount, _ := total.minor()
			return domain.SalesLineItem{
				Name:            lo.Ternary(item.Name != "", item.Name, defaultItemName),
				TotalMinorUnits: amount,
				Currency:        currencyOf(total),
				Quantity:        lo.Ternary(item.Quantity != "", item.Quantity, "1"),
			}
		})
	case len(inv.PaymentRequests) > 0:
		detail.SalesLineItems = lo.Map(inv.PaymentRequests, func(req paymentRequest, _ int) domain.SalesLineItem {
			total := firstMoney(req.ComputedAmountMoney, req.FixedAmountRequestedMoney)
			amount, _ := total.minor()
			return domain.SalesLineItem{
				Name:            paymentRequestName(req.RequestType),
				TotalMinorUnits: amount,
				Currency:        currencyOf(total),
				Quantity:        "1",
			}
		})
	}
	if len(detail.SalesLineItems) > 0 {
		detail.Currency = detail.SalesLineItems[0].Currency
	}
	return detail
}

func (a *Adapter) Locations(ctx context.Context, creds integrationdomain.Credentials) ([]domain.Location, error) {
	if strings.TrimSpace(creds.SquareAccessToken) == "" {
		return nil, integrationdomain.ErrSquareNotConfigured
	}

	var resp locationsResponse
	if err := a.client.do(ctx, creds.SquareAccessToken, http.MethodGet, "/v2/locations", nil, nil, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.Locations, func(loc location, _ int) domain.Location {
		return domain.Location{ID: loc.ID, Name: loc.Name, BusinessName: loc.BusinessName}
	}), nil
}

func (a *Adapter) fetchOrder(ctx context.Context, creds integrationdomain.Credentials, orderID string) (*order, error) {
	var resp orderResponse
	path := "/v2/orders/" + url.PathEscape(orderID)
	if err := a.client.do(ctx, creds.SquareAccessToken, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	var ord order
	if err := json.Unmarshal(resp.Order, &ord); err != nil {
		return nil, fmt.Errorf("decode square order: %w", err)
	}
	return &ord, nil
}

// invoiceAmountMinor prefers the next payment amount, then the sum of the
// payment requests.
func invoiceAmountMinor(inv invoice) int64 {
	if amount, ok := inv.NextPaymentAmountMoney.minor(); ok {
		return amount
	}
	var total int64
	for _, req := range inv.PaymentRequests {
		if amount, ok := firstMoney(req.ComputedAmountMoney, req.FixedAmountRequestedMoney, req.TotalCompletedAmountMoney).minor(); ok {
			total += amount
		}
	}
	return total
}

func overlayLineItems(doc json.RawMessage, items []lineItem) (json.RawMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(doc, &payload); err != nil {
		return nil, err
	}
	payload["line_items"] = items
	return json.Marshal(payload)
}

func itemNames(items []lineItem) string {
	return strings.Join(lo.Map(items, func(item lineItem, _ int) string {
		return lo.Ternary(item.Name != "", item.Name, defaultItemName)
	}), "; ")
}

func lineItemsSummary(items []domain.LineItem) string {
	return strings.Join(lo.Map(items, func(item domain.LineItem, _ int) string {
		return item.Name
	}), "; ")
}

func recipientEmail(inv invoice) string {
	if inv.PrimaryRecipient == nil {
		return ""
	}
	return strings.TrimSpace(inv.PrimaryRecipient.EmailAddress)
}

func firstMoney(candidates ...*moneyValue) *moneyValue {
	for _, candidate := range candidates {
		if _, ok := candidate.minor(); ok {
			return candidate
		}
	}
	return nil
}

func currencyOf(m *moneyValue) string {
	if m == nil {
		return ""
	}
	return m.Currency
}

func paymentRequestName(requestType string) string {
	switch requestType {
	case requestBalance:
		return "Balance"
	case "":
		return "Payment"
	default:
		return requestType
	}
}
