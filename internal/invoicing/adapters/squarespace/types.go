package squarespace

import "encoding/json"

type amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

func (a *amount) value() (string, bool) {
	if a == nil || a.Value == "" {
		return "", false
	}
	return a.Value, true
}

type address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type salesLineItem struct {
	Description   string      `json:"description"`
	Quantity      json.Number `json:"quantity,omitempty"`
	Total         *amount     `json:"total,omitempty"`
	TotalNetSales *amount     `json:"totalNetSales,omitempty"`
	TotalSales    *amount     `json:"totalSales,omitempty"`
}

type transaction struct {
	ID              string          `json:"id"`
	SalesOrderID    string          `json:"salesOrderId"`
	CustomerEmail   string          `json:"customerEmail"`
	ModifiedOn      string          `json:"modifiedOn"`
	Total           *amount         `json:"total"`
	TotalNetPayment *amount         `json:"totalNetPayment"`
	SalesLineItems  []salesLineItem `json:"salesLineItems"`
	BillingAddress  *address        `json:"billingAddress"`
}

type pagination struct {
	NextPageCursor string `json:"nextPageCursor"`
	HasNextPage    bool   `json:"hasNextPage"`
}

type transactionsResponse struct {
	Documents  []json.RawMessage `json:"documents"`
	Pagination pagination        `json:"pagination"`
}

type orderLineItem struct {
	LineItemType     string `json:"lineItemType"`
	Title            string `json:"title"`
	Quantity         int64  `json:"quantity"`
	UnitPricePaid    amount `json:"unitPricePaid"`
	NonSaleUnitPrice amount `json:"nonSaleUnitPrice"`
}

type createOrderRequest struct {
	ChannelName            string          `json:"channelName"`
	ExternalOrderReference string          `json:"externalOrderReference"`
	CustomerEmail          string          `json:"customerEmail"`
	LineItems              []orderLineItem `json:"lineItems"`
	PriceTaxInterpretation string          `json:"priceTaxInterpretation"`
	Subtotal               amount          `json:"subtotal"`
	ShippingTotal          amount          `json:"shippingTotal"`
	DiscountTotal          amount          `json:"discountTotal"`
	TaxTotal               amount          `json:"taxTotal"`
	GrandTotal             amount          `json:"grandTotal"`
	CreatedOn              string          `json:"createdOn"`
}

type createdOrder struct {
	ID            string  `json:"id"`
	CustomerEmail string  `json:"customerEmail"`
	GrandTotal    *amount `json:"grandTotal"`
}

type apiError struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Message string `json:"message"`
}
