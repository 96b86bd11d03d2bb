package model

import "github.com/shopspring/decimal"

// Money is a decimal amount encoded as a bare JSON number, the way the
// persisted cart record and API payloads carry prices. Decoding accepts
// quoted and unquoted numbers.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// Category is one of the closed set of product groupings.
type Category string

const (
	CategoryLaptop    Category = "laptop"
	CategoryPhone     Category = "phone"
	CategoryTablet    Category = "tablet"
	CategoryAccessory Category = "accessory"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryLaptop, CategoryPhone, CategoryTablet, CategoryAccessory}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Price       Money    `json:"price"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
}
