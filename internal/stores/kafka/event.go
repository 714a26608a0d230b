package kafka

import "time"

const TopicOrderCreated = `storefront.order-created`

// OrderCreatedEvent is published after an order commits. Downstream
// consumers (fulfilment dashboards, analytics) key on the order id.
type OrderCreatedEvent struct {
	OrderID          string    `json:"order_id"`
	UserID           string    `json:"user_id,omitempty"`
	Email            string    `json:"email"`
	AmountTotalCents int64     `json:"amount_total_cents"`
	Currency         string    `json:"currency"`
	ItemCount        int       `json:"item_count"`
	CreatedAt        time.Time `json:"created_at"`
}
