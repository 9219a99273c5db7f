package payments

import (
	"context"
	"testing"

	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNewStripeGateway_Currency(t *testing.T) {
	assert.Equal(t, "usd", NewStripeGateway("sk_test_x", "").Currency())
	assert.Equal(t, "ghs", NewStripeGateway("sk_test_x", "GHS").Currency())
}

func TestCreateIntent_BelowMinimum(t *testing.T) {
	g := NewStripeGateway("sk_test_x", "usd")

	_, err := g.CreateIntent(context.Background(), MinimumAmount-1, "", nil)

	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}
