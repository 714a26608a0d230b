package checkout

import (
	"context"
	"fmt"

	"storefront/internal/identity"
	"storefront/internal/orders"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

// StripeGateway is the real-processor side of the seam. It is only selected
// when STRIPE_TEST_KEY is set; the rest of the storefront treats its
// sessions exactly like mocked ones.
type StripeGateway struct {
	SiteURL string
}

func NewStripeGateway(apiKey, siteURL string) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe api key is empty")
	}
	if siteURL == "" {
		siteURL = "http://localhost:3000"
	}
	stripe.Key = apiKey
	return &StripeGateway{SiteURL: siteURL}, nil
}

func (g *StripeGateway) CreateSession(ctx context.Context, items []orders.LineItem, currency, email string, id identity.Identity) (Session, error) {
	if len(items) == 0 {
		return Session{}, fmt.Errorf("checkout requires at least one line item")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Qty)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.PriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Title),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		SubmitType: stripe.String("pay"),
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.SiteURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.SiteURL + "/cancel"),
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if userID := id.UserID(); userID != "" {
		params.ClientReferenceID = stripe.String(userID)
	}

	s, err := session.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("creating stripe checkout session: %w", err)
	}

	return Session{ID: s.ID, URL: s.URL}, nil
}
