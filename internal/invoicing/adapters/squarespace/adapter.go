// Package squarespace implements the Squarespace commerce family: orders are
// read from the Transactions API and created through the Orders API.
package squarespace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/config"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/pkg/money"
	"go.uber.org/zap"
)

const (
	syncWindow       = 365 * 24 * time.Hour
	defaultItemName  = "Line item"
	defaultCurrency  = "USD"
	lineItemCustom   = "CUSTOM"
	taxExclusive     = "EXCLUSIVE"
	transactionsPath = "/1.0/commerce/transactions"
	ordersPath       = "/1.0/commerce/orders"
)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type Adapter struct {
	client *client
	clock  clock.Clock
	log    *zap.Logger
}

func New(cfg Config, clk clock.Clock, log *zap.Logger) *Adapter {
	if clk == nil {
		clk = clock.System()
	}
	return &Adapter{
		client: newClient(cfg.BaseURL, cfg.UserAgent, cfg.Timeout),
		clock:  clk,
		log:    log.Named("invoicing.squarespace"),
	}
}

func NewFromConfig(cfg config.Config, clk clock.Clock, log *zap.Logger) *Adapter {
	return New(Config{
		BaseURL:   cfg.Providers.SquarespaceURL(),
		UserAgent: cfg.Providers.SquarespaceAgent,
		Timeout:   time.Duration(cfg.Providers.HTTPTimeoutSeconds) * time.Second,
	}, clk, log)
}

func (a *Adapter) Family() domain.Family { return domain.FamilySquarespace }

func (a *Adapter) Validate(creds integrationdomain.Credentials) error {
	return creds.RequireSquarespace()
}

// ListPage reads transactions modified in the last year. Later pages are
// addressed by cursor alone.
func (a *Adapter) ListPage(ctx context.Context, creds integrationdomain.Credentials, cursor string) (*domain.Page, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	} else {
		now := a.clock.Now().UTC()
		query.Set("modifiedAfter", now.Add(-syncWindow).Format(time.RFC3339))
		query.Set("modifiedBefore", now.Format(time.RFC3339))
	}

	var resp transactionsResponse
	if err := a.client.do(ctx, creds.SquarespaceAPIKey, http.MethodGet, transactionsPath, query, nil, "", &resp); err != nil {
		return nil, err
	}

	page := &domain.Page{Documents: resp.Documents}
	if resp.Pagination.HasNextPage && resp.Pagination.NextPageCursor != "" {
		page.NextCursor = resp.Pagination.NextPageCursor
	}
	return page, nil
}

func (a *Adapter) Normalize(ctx context.Context, creds integrationdomain.Credentials, docs []json.RawMessage) ([]domain.Record, error) {
	decoded := make([]decodedTransaction, 0, len(docs))
	for _, doc := range docs {
		var tx transaction
		if err := json.Unmarshal(doc, &tx); err != nil {
			return nil, fmt.Errorf("decode squarespace transaction: %w", err)
		}
		decoded = append(decoded, decodedTransaction{tx: tx, raw: doc})
	}

	kept := dedupe(decoded)
	if dropped := len(decoded) - len(kept); dropped > 0 {
		a.log.Debug("squarespace transactions collapsed", zap.Int("dropped", dropped))
	}

	return lo.Map(kept, func(doc decodedTransaction, _ int) domain.Record {
		return domain.Record{
			ExternalID:    doc.tx.SalesOrderID,
			CustomerEmail: strings.TrimSpace(doc.tx.CustomerEmail),
			Amount:        money.Normalize(totalValue(doc.tx)),
			Summary:       salesSummary(doc.tx.SalesLineItems),
			Raw:           doc.raw,
		}
	}), nil
}

// TemplateLineItems always bills one line at the template's stored total.
func (a *Adapter) TemplateLineItems(ctx context.Context, creds integrationdomain.Credentials, template domain.CachedInvoice, fallbackTitle string) ([]domain.LineItem, error) {
	total, err := money.ToMinor(template.Amount)
	if err != nil {
		total = 0
	}
	return []domain.LineItem{{Name: fallbackTitle, Quantity: "1", UnitAmountMinor: total}}, nil
}

func (a *Adapter) CreateOrderAndInvoice(ctx context.Context, creds integrationdomain.Credentials, req domain.SubmitRequest) (*domain.Created, error) {
	currency := lo.Ternary(req.Currency != "", req.Currency, defaultCurrency)
	zero := amount{Currency: currency, Value: money.FromMinor(0)}
	total := amount{Currency: currency, Value: money.FromMinor(domain.TotalMinor(req.Items))}

	payload := createOrderRequest{
		ChannelName:            req.ChannelName,
		ExternalOrderReference: req.Reference,
		CustomerEmail:          req.CustomerEmail,
		LineItems: lo.Map(req.Items, func(item domain.LineItem, _ int) orderLineItem {
			unit := amount{Currency: currency, Value: money.FromMinor(item.UnitAmountMinor)}
			return orderLineItem{
				LineItemType:     lineItemCustom,
				Title:            item.Name,
				Quantity:         quantity(item.Quantity),
				UnitPricePaid:    unit,
				NonSaleUnitPrice: unit,
			}
		}),
		PriceTaxInterpretation: taxExclusive,
		Subtotal:               total,
		ShippingTotal:          zero,
		DiscountTotal:          zero,
		TaxTotal:               zero,
		GrandTotal:             total,
		CreatedOn:              a.clock.Now().UTC().Format(time.RFC3339),
	}

	var raw json.RawMessage
	if err := a.client.do(ctx, creds.SquarespaceAPIKey, http.MethodPost, ordersPath, nil, payload, req.IdempotencyKey, &raw); err != nil {
		return nil, err
	}

	var created createdOrder
	if err := json.Unmarshal(raw, &created); err != nil || created.ID == "" {
		return nil, errors.New("squarespace did not return an order")
	}

	amountValue := total.Value
	if value, ok := created.GrandTotal.value(); ok {
		amountValue = money.Normalize(value)
	}

	return &domain.Created{
		Record: domain.Record{
			ExternalID:    created.ID,
			CustomerEmail: lo.Ternary(created.CustomerEmail != "", created.CustomerEmail, req.CustomerEmail),
			Amount:        amountValue,
			Summary:       itemsSummary(req.Items),
			Raw:           raw,
		},
		OrderID: created.ID,
	}, nil
}

func (a *Adapter) Describe(cached domain.CachedInvoice) domain.Detail {
	var tx transaction
	if err := json.Unmarshal(cached.RawJSON, &tx); err != nil {
		return domain.Detail{}
	}

	detail := domain.Detail{}
	if tx.Total != nil {
		detail.Currency = tx.Total.Currency
	}
	if tx.BillingAddress != nil {
		detail.CustomerName = strings.TrimSpace(strings.Join(lo.Compact([]string{
			strings.TrimSpace(tx.BillingAddress.FirstName),
			strings.TrimSpace(tx.BillingAddress.LastName),
		}), " "))
	}
	detail.SalesLineItems = lo.Map(tx.SalesLineItems, func(item salesLineItem, _ int) domain.SalesLineItem {
		line := domain.SalesLineItem{
			Name:     lo.Ternary(item.Description != "", item.Description, defaultItemName),
			Quantity: lo.Ternary(item.Quantity.String() != "", item.Quantity.String(), "1"),
		}
		if item.Total != nil {
			line.Currency = item.Total.Currency
			if minor, err := money.ToMinor(item.Total.Value); err == nil {
				line.TotalMinorUnits = minor
			}
		}
		return line
	})
	return detail
}

func salesSummary(items []salesLineItem) string {
	return strings.Join(lo.Map(items, func(item salesLineItem, _ int) string {
		name := lo.Ternary(item.Description != "", item.Description, defaultItemName)
		for _, total := range []*amount{item.Total, item.TotalNetSales, item.TotalSales} {
			if value, ok := total.value(); ok {
				return name + ": " + value
			}
		}
		return name
	}), "; ")
}

func itemsSummary(items []domain.LineItem) string {
	return strings.Join(lo.Map(items, func(item domain.LineItem, _ int) string {
		return item.Name + ": " + money.FromMinor(item.TotalMinor())
	}), "; ")
}

func quantity(value string) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || parsed <= 0 {
		return 1
	}
	return parsed
}
