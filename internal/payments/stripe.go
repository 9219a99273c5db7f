package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// MinimumAmount is the smallest charge the gateway accepts, in minor units.
const MinimumAmount int64 = 50

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type StripeGateway struct {
	api      *client.API
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{
		api:      client.New(secretKey, nil),
		currency: strings.ToLower(currency),
	}
}

func (g *StripeGateway) Currency() string {
	return g.currency
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	if amountMinor < MinimumAmount {
		return nil, fmt.Errorf("%w: amount must be at least %d minor units", models.ErrInvalidRequest, MinimumAmount)
	}
	if currency == "" {
		currency = g.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidRequest, stripeErr.Msg)
		}
		return nil, fmt.Errorf("%w: failed to create payment intent: %v", models.ErrUpstream, err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
