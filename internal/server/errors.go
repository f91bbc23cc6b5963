package server

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	analyticsdomain "github.com/smallbiznis/hullbook/internal/analytics/domain"
	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
	mappingdomain "github.com/smallbiznis/hullbook/internal/mapping/domain"
	notificationdomain "github.com/smallbiznis/hullbook/internal/notification/domain"
	"github.com/smallbiznis/hullbook/pkg/db"
	"github.com/smallbiznis/hullbook/pkg/upstream"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrOwnerRequired      = errors.New("owner_required")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationSentinels are domain errors reported as 400 validation_error.
// Wrapped forms match too, and the sentinel text becomes the error code.
var validationSentinels = []error{
	ErrInvalidRequest,
	bookingdomain.ErrInvalidRange,
	bookingdomain.ErrInvalidID,
	completiondomain.ErrInvalidBooking,
	completiondomain.ErrInvalidStatus,
	mappingdomain.ErrInvalidBooking,
	mappingdomain.ErrInvalidInvoiceID,
	integrationdomain.ErrEmptyUpdate,
	invoicingdomain.ErrInvalidFamily,
	invoicingdomain.ErrInvalidAmount,
	invoicingdomain.ErrInvalidExtraAmount,
	invoicingdomain.ErrInvalidBooking,
	invoicingdomain.ErrInvalidExternalID,
	invoicingdomain.ErrLocationsUnsupported,
	invoicingdomain.ErrProviderNotFound,
	analyticsdomain.ErrInvalidRange,
	notificationdomain.ErrInvalidToken,
}

var ownerSentinels = []error{
	ErrOwnerRequired,
	bookingdomain.ErrInvalidOwner,
	completiondomain.ErrInvalidOwner,
	mappingdomain.ErrInvalidOwner,
	integrationdomain.ErrInvalidOwner,
	invoicingdomain.ErrInvalidOwner,
	analyticsdomain.ErrInvalidOwner,
	notificationdomain.ErrInvalidOwner,
}

type notFound struct {
	err     error
	message string
}

var notFoundSentinels = []notFound{
	{invoicingdomain.ErrNoInvoiceLinked, "no invoice is linked to this booking"},
	{invoicingdomain.ErrTemplateNotFound, "the linked invoice is not in the local cache; sync the provider first"},
	{completiondomain.ErrBookingMissing, "booking not found"},
	{mappingdomain.ErrBookingMissing, "booking not found"},
	{bookingdomain.ErrNotFound, "booking not found"},
	{completiondomain.ErrNotFound, "completion record not found"},
	{mappingdomain.ErrNotFound, "mapping not found"},
	{invoicingdomain.ErrNotFound, "invoice not found"},
	{ErrNotFound, "not found"},
	{gorm.ErrRecordNotFound, "not found"},
}

// conflictMessages names, per table, the unique key an insert collided
// with. Upserts cover the normal path, so these show up on concurrent writes.
var conflictMessages = map[string]string{
	"event_invoice_mappings": "this booking already has a linked invoice",
	"completion_records":     "this booking already has a completion record",
	"push_tokens":            "this device is already registered",
	"integration_settings":   "integration settings already exist for this owner",
	"bookings":               "this calendar event is already cached",
	"square_invoices":        "this invoice is already cached",
	"squarespace_orders":     "this order is already cached",
}

func conflictMessage(conflict *db.Conflict) string {
	if message, ok := conflictMessages[conflict.Table]; ok {
		return message
	}
	return "the resource already exists"
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

// bindError turns a binding failure into field errors when the validator
// produced them.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidRequestError()
	}
	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := toSnake(fe.Field())
		out = append(out, ValidationError{
			Field:   field,
			Code:    fe.Tag(),
			Message: field + " failed " + fe.Tag() + " validation",
		})
	}
	return &ValidationErrors{Errors: out}
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if errors.Is(err, integrationdomain.ErrNotConfigured) {
		return http.StatusBadRequest, errorPayload{
			Type:    "configuration_error",
			Message: configurationMessage(err),
		}
	}

	if upErr, ok := upstream.As(err); ok {
		message := upErr.Detail
		if message == "" {
			message = http.StatusText(upErr.StatusCode)
		}
		if message == "" {
			message = "upstream provider error"
		}
		return upErr.HTTPStatus(), errorPayload{
			Type:    "upstream_error",
			Message: message,
		}
	}

	if code, ok := validationCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(err, code),
				},
			},
		}
	}

	if message, ok := notFoundMessage(err); ok {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: message,
		}
	}

	if conflict, ok := db.AsConflict(err); ok {
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(conflict),
		}
	}

	switch {
	case isOwnerError(err), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "missing or invalid X-Owner-ID",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many sync requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func configurationMessage(err error) string {
	var cfgErr *integrationdomain.ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr != nil {
		return cfgErr.Message
	}
	return "provider is not configured"
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationCode(err error) (string, bool) {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

func notFoundMessage(err error) (string, bool) {
	for _, entry := range notFoundSentinels {
		if errors.Is(err, entry.err) {
			return entry.message, true
		}
	}
	return "", false
}

func isOwnerError(err error) bool {
	for _, sentinel := range ownerSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// Wrapped sentinels carry the offending value, which is more useful to the
// admin UI than a generic message.
func validationErrorMessage(err error, code string) string {
	if code == "invalid_request" {
		return "invalid request"
	}
	if msg := err.Error(); msg != code {
		return msg
	}
	return "invalid value"
}

// toSnake maps Go field names to their JSON spelling, keeping acronyms
// together: BookingID becomes booking_id.
func toSnake(field string) string {
	runes := []rune(field)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
