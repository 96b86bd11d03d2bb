package model

import "github.com/shopspring/decimal"

// CartEntry is a product snapshot taken when it was first added, plus the
// quantity currently held. The embedded fields never follow later catalog
// changes.
type CartEntry struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal is the snapshotted price times the quantity.
func (e CartEntry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// CartView is a read-only projection of the ledger handed to the presentation layer.
type CartView struct {
	Entries   []CartEntry `json:"items"`
	Total     Money       `json:"total"`
	ItemCount int         `json:"item_count"`
}
