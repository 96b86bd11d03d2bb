package cart

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/techstore-demo/server/internal/storefront/model"
)

// MaxQuantity caps a single entry. Quantity changes saturate at it.
const MaxQuantity = 1_000_000

// Change describes what UpdateQuantity did to the ledger.
type Change int

const (
	// Unchanged means no entry existed for the product.
	Unchanged Change = iota
	// Updated means the entry kept a positive quantity.
	Updated
	// Removed means the quantity dropped to zero or below and the entry was deleted.
	Removed
)

func (c Change) String() string {
	switch c {
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// Ledger is an ordered list of cart entries holding at most one entry per
// product id, each with a quantity of at least one.
//
// A Ledger is not safe for concurrent use; the owning shopper serialises access.
type Ledger struct {
	entries []model.CartEntry
}

// New builds a ledger from previously persisted entries, dropping entries
// with a non-positive quantity and merging duplicate ids into the first
// occurrence.
func New(entries ...model.CartEntry) *Ledger {
	l := &Ledger{}
	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		e.Quantity = min(e.Quantity, MaxQuantity)
		if i := l.index(e.ID); i >= 0 {
			l.entries[i].Quantity = addQuantity(l.entries[i].Quantity, e.Quantity)
			continue
		}
		l.entries = append(l.entries, e)
	}
	return l
}

// addQuantity returns cur+delta clamped to MaxQuantity, without wrapping on
// overflow.
func addQuantity(cur, delta int) int {
	if delta > 0 && cur > math.MaxInt-delta {
		return MaxQuantity
	}
	return min(cur+delta, MaxQuantity)
}

func (l *Ledger) index(id int) int {
	return slices.IndexFunc(l.entries, func(e model.CartEntry) bool { return e.ID == id })
}

// Add increments the product's entry, creating it with quantity one and a
// snapshot of the product's display fields when absent.
func (l *Ledger) Add(p model.Product) model.CartEntry {
	if i := l.index(p.ID); i >= 0 {
		l.entries[i].Quantity = addQuantity(l.entries[i].Quantity, 1)
		return l.entries[i]
	}
	e := model.CartEntry{Product: p, Quantity: 1}
	l.entries = append(l.entries, e)
	return e
}

// Remove deletes the entry for id and reports whether one existed.
func (l *Ledger) Remove(id int) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return true
}

// UpdateQuantity adds delta to the entry's quantity, saturating at
// MaxQuantity. An entry whose quantity would become zero or negative is
// removed instead.
func (l *Ledger) UpdateQuantity(id, delta int) Change {
	i := l.index(id)
	if i < 0 {
		return Unchanged
	}
	next := addQuantity(l.entries[i].Quantity, delta)
	if next <= 0 {
		l.entries = slices.Delete(l.entries, i, i+1)
		return Removed
	}
	l.entries[i].Quantity = next
	return Updated
}

// Get returns the entry for id.
func (l *Ledger) Get(id int) (model.CartEntry, bool) {
	i := l.index(id)
	if i < 0 {
		return model.CartEntry{}, false
	}
	return l.entries[i], true
}

// Total is the sum of snapshotted price times quantity; zero when empty.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// ItemCount sums quantities, so a quantity-3 entry counts as three.
func (l *Ledger) ItemCount() int {
	n := 0
	for _, e := range l.entries {
		n += e.Quantity
	}
	return n
}

// Len is the number of distinct entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []model.CartEntry {
	out := make([]model.CartEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// View projects the ledger for display.
func (l *Ledger) View() model.CartView {
	return model.CartView{
		Entries:   l.Entries(),
		Total:     model.NewMoney(l.Total()),
		ItemCount: l.ItemCount(),
	}
}

// Deduct takes the given quantities out of the ledger, removing entries that
// reach zero. Entries not listed, or added since, are kept.
func (l *Ledger) Deduct(entries []model.CartEntry) {
	for _, e := range entries {
		if e.Quantity > 0 {
			l.UpdateQuantity(e.ID, -e.Quantity)
		}
	}
}

// Snapshot returns an independent copy of the ledger.
func (l *Ledger) Snapshot() *Ledger {
	return &Ledger{entries: l.Entries()}
}

// MarshalJSON encodes the ledger as the persisted cart record: an array of
// product snapshots with their quantity.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// UnmarshalJSON restores a persisted cart record, applying the same
// normalisation as New.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var entries []model.CartEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*l = *New(entries...)
	return nil
}
