package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadTTL is how long a minted download token stays redeemable. Every
// token in one order shares a single deadline fixed at creation.
const DownloadTTL = 72 * time.Hour

// StatusPaid is the only payment status this service records; checkout is
// mocked as always succeeding, so orders are born paid.
const StatusPaid = "paid"

// Order is immutable once written. Line items snapshot title and price at
// the time of sale so later catalog edits never rewrite history.
type Order struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id,omitempty"`
	Email            string     `json:"email"`
	Items            []LineItem `json:"items"`
	AmountTotalCents int64      `json:"amount_total_cents"`
	Currency         string     `json:"currency"`
	PaymentSessionID string     `json:"payment_session_id"`
	PaymentStatus    string     `json:"payment_status"`
	DownloadTokens   []string   `json:"download_tokens"`
	CreatedAt        time.Time  `json:"created_at"`
}

type LineItem struct {
	ProductID  string `json:"product_id" validate:"required"`
	Title      string `json:"title" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"min=0"`
	Qty        int    `json:"qty" validate:"min=1"`
}

// NewToken mints an opaque download capability. UUIDs keep tokens
// collision-resistant without a pre-insert uniqueness check; the unique
// index on downloads.token is the backstop.
func NewToken() string {
	return "dl_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
