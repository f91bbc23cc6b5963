package upstream

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKeepsProviderDetail(t *testing.T) {
	err := New("square", http.StatusUnauthorized, " This request could not be authorized. ")
	assert.Equal(t, "square upstream error (401): This request could not be authorized.", err.Error())
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
}

func TestHTTPStatusFallsBackToBadGateway(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, New("squarespace", http.StatusOK, "errors present").HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, New("squarespace", 0, "").HTTPStatus())
}

func TestAsUnwrapsChains(t *testing.T) {
	wrapped := fmt.Errorf("sync square: %w", New("square", http.StatusBadRequest, "bad cursor"))
	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "bad cursor", got.Detail)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}
