package downloads

import "time"

// Download is a time-limited capability over one purchased file. UsedAt is
// informational: it records that a download happened and never revokes the
// token.
type Download struct {
	Token     string     `json:"token"`
	ProductID string     `json:"product_id"`
	OrderID   string     `json:"order_id"`
	Email     string     `json:"email"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Expired reports whether the token's deadline has passed. The token grants
// access iff now < ExpiresAt.
func (d Download) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}
