package square

import "encoding/json"

type moneyValue struct {
	Amount   *int64 `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

func (m *moneyValue) minor() (int64, bool) {
	if m == nil || m.Amount == nil {
		return 0, false
	}
	return *m.Amount, true
}

type recipient struct {
	GivenName    string `json:"given_name"`
	FamilyName   string `json:"family_name"`
	EmailAddress string `json:"email_address"`
}

type paymentRequest struct {
	RequestType               string      `json:"request_type"`
	DueDate                   string      `json:"due_date,omitempty"`
	ComputedAmountMoney       *moneyValue `json:"computed_amount_money,omitempty"`
	FixedAmountRequestedMoney *moneyValue `json:"fixed_amount_requested_money,omitempty"`
	TotalCompletedAmountMoney *moneyValue `json:"total_completed_amount_money,omitempty"`
}

type invoice struct {
	ID                     string           `json:"id"`
	OrderID                string           `json:"order_id"`
	Title                  string           `json:"title"`
	NextPaymentAmountMoney *moneyValue      `json:"next_payment_amount_money"`
	PaymentRequests        []paymentRequest `json:"payment_requests"`
	PrimaryRecipient       *recipient       `json:"primary_recipient"`
	LineItems              []lineItem       `json:"line_items"`
}

type lineItem struct {
	Name                     string      `json:"name"`
	Quantity                 string      `json:"quantity"`
	BasePriceMoney           *moneyValue `json:"base_price_money,omitempty"`
	TotalMoney               *moneyValue `json:"total_money,omitempty"`
	VariationTotalPriceMoney *moneyValue `json:"variation_total_price_money,omitempty"`
}

type order struct {
	ID         string      `json:"id"`
	LineItems  []lineItem  `json:"line_items"`
	TotalMoney *moneyValue `json:"total_money"`
}

type location struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name"`
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type envelope struct {
	Errors []apiError `json:"errors"`
}

type listInvoicesResponse struct {
	Invoices []json.RawMessage `json:"invoices"`
	Cursor   string            `json:"cursor"`
}

type orderResponse struct {
	Order json.RawMessage `json:"order"`
}

type invoiceResponse struct {
	Invoice json.RawMessage `json:"invoice"`
}

type locationsResponse struct {
	Locations []location `json:"locations"`
}

type createOrderRequest struct {
	Order          orderPayload `json:"order"`
	IdempotencyKey string       `json:"idempotency_key"`
}

type orderPayload struct {
	LocationID  string            `json:"location_id"`
	ReferenceID string            `json:"reference_id,omitempty"`
	LineItems   []lineItemPayload `json:"line_items"`
}

type lineItemPayload struct {
	Name           string     `json:"name"`
	Quantity       string     `json:"quantity"`
	BasePriceMoney moneyValue `json:"base_price_money"`
}

type createInvoiceRequest struct {
	Invoice        invoicePayload `json:"invoice"`
	IdempotencyKey string         `json:"idempotency_key"`
}

type invoicePayload struct {
	LocationID             string                 `json:"location_id"`
	OrderID                string                 `json:"order_id"`
	PaymentRequests        []paymentRequest       `json:"payment_requests"`
	DeliveryMethod         string                 `json:"delivery_method"`
	AcceptedPaymentMethods acceptedPaymentMethods `json:"accepted_payment_methods"`
	Title                  string                 `json:"title"`
}

type acceptedPaymentMethods struct {
	Card           bool `json:"card"`
	SquareGiftCard bool `json:"square_gift_card"`
	BankAccount    bool `json:"bank_account"`
	BuyNowPayLater bool `json:"buy_now_pay_later"`
	CashAppPay     bool `json:"cash_app_pay"`
}
