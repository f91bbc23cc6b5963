package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsUnknownAndEmpty(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/mappings"),
		attribute.String("owner_email", "a@example.com"),
		attribute.String("provider", ""),
		attribute.Int("http.status_code", 200),
	)
	assert.Len(t, attrs, 2)
}

func TestSafeErrorRedactsCredentials(t *testing.T) {
	assert.EqualError(t, SafeError(errors.New("invalid Bearer EAAA")), "redacted error")
	assert.EqualError(t, SafeError(errors.New("db down")), "db down")
	assert.Nil(t, SafeError(nil))
}
