package adapters

import (
	"testing"

	"github.com/smallbiznis/hullbook/internal/invoicing/adapters/square"
	"github.com/smallbiznis/hullbook/internal/invoicing/adapters/squarespace"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryResolvesByFamily(t *testing.T) {
	registry := NewRegistry(
		square.New(square.Config{BaseURL: "http://square.invalid"}, zap.NewNop()),
		squarespace.New(squarespace.Config{BaseURL: "http://squarespace.invalid"}, nil, zap.NewNop()),
		nil,
	)

	for _, family := range domain.Families() {
		provider, err := registry.Provider(family)
		require.NoError(t, err)
		assert.Equal(t, family, provider.Family())
		assert.True(t, registry.ProviderExists(family))
	}

	_, err := registry.Provider(domain.Family("paypal"))
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)

	var empty *Registry
	assert.False(t, empty.ProviderExists(domain.FamilySquare))
}
