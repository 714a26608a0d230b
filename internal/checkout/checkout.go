// Package checkout is the boundary to the payment processor. The storefront
// itself never authorizes payments; it asks a Gateway for a session and
// redirects the buyer there.
package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"storefront/internal/identity"
	"storefront/internal/orders"
)

// Session is what the front-end needs to continue a checkout: an opaque
// session identifier and the redirect URL.
type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// Gateway creates payment sessions. MockGateway is the default; a real
// processor integration plugs in behind the same seam.
type Gateway interface {
	CreateSession(ctx context.Context, items []orders.LineItem, currency, email string, id identity.Identity) (Session, error)
}

// MockGateway fabricates a session without talking to any processor: no
// payment authorization, no price validation against the live catalog, no
// inventory check. A production flow would be asynchronous and
// webhook-confirmed; this models it as a synchronous success.
type MockGateway struct {
	SiteURL string
}

func NewMockGateway(siteURL string) *MockGateway {
	if siteURL == "" {
		siteURL = "http://localhost:3000"
	}
	return &MockGateway{SiteURL: siteURL}
}

const sessionAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func (g *MockGateway) CreateSession(ctx context.Context, items []orders.LineItem, currency, email string, id identity.Identity) (Session, error) {
	if len(items) == 0 {
		return Session{}, fmt.Errorf("checkout requires at least one line item")
	}

	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = sessionAlphabet[rand.Intn(len(sessionAlphabet))]
	}
	sessionID := fmt.Sprintf("cs_%d_%s", time.Now().UnixMilli(), suffix)

	return Session{
		ID:  sessionID,
		URL: fmt.Sprintf("%s/success?session_id=%s", g.SiteURL, sessionID),
	}, nil
}
