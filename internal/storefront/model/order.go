package model

import "time"

// Order is the confirmation produced by a successful checkout. It is handed
// to the shopper and the order queue, never stored.
type Order struct {
	Number   string      `json:"order_number"`
	Entries  []CartEntry `json:"items"`
	Total    Money       `json:"total"`
	Email    string      `json:"email"`
	PlacedAt time.Time   `json:"placed_at"`
}

// CheckoutState tracks a shopper's position in the checkout flow.
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutValidating CheckoutState = "validating"
	CheckoutRejected   CheckoutState = "rejected"
	CheckoutProcessing CheckoutState = "processing"
	CheckoutConfirmed  CheckoutState = "confirmed"
)
