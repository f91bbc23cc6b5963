// Package upstream carries failures reported by external provider APIs.
package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-success response or an in-band error payload returned by a
// provider. Detail is the provider's own message, kept verbatim.
type Error struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s upstream error (%d): %s", e.Provider, e.StatusCode, detail)
}

// HTTPStatus maps the provider status onto a status suitable for our own
// response. Anything that is not a client or server error becomes 502.
func (e *Error) HTTPStatus() int {
	if e.StatusCode >= http.StatusBadRequest && e.StatusCode <= 599 {
		return e.StatusCode
	}
	return http.StatusBadGateway
}

// New builds an upstream error.
func New(provider string, status int, detail string) *Error {
	return &Error{Provider: provider, StatusCode: status, Detail: strings.TrimSpace(detail)}
}

// As extracts an upstream error from an error chain.
func As(err error) (*Error, bool) {
	var upErr *Error
	if errors.As(err, &upErr) && upErr != nil {
		return upErr, true
	}
	return nil, false
}
