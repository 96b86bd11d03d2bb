package checkout

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/deferred"
	"github.com/techstore-demo/server/internal/storefront/model"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// Snapshot is the cart as it stood when the form was validated. The
// confirmed order is built from it, whatever happens to the live cart while
// the order is processing.
type Snapshot struct {
	Entries []model.CartEntry
	Total   decimal.Decimal
}

// ConfirmFunc finalises an order once processing has elapsed, typically by
// deducting the ordered quantities from the shopper's cart and persisting it. It runs on the task goroutine.
type ConfirmFunc func(ctx context.Context, order *model.Order) error

// Orchestrator drives one shopper through
// Idle -> Validating -> Rejected | Processing -> Confirmed.
// Rejected and Confirmed may be re-entered by a new submission.
type Orchestrator struct {
	validator Validator
	delay     time.Duration
	now       func() time.Time

	mu      sync.Mutex
	state   model.CheckoutState
	gen     uint64
	pending *deferred.Task[*model.Order]
}

// New builds an idle orchestrator. A nil clock defaults to time.Now.
func New(cfg model.CheckoutConfig, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		validator: Validator{RequireShippingZip: cfg.RequireShippingZip},
		delay:     cfg.ProcessingDelay,
		now:       now,
		state:     model.CheckoutIdle,
	}
}

// State reports the current checkout state.
func (o *Orchestrator) State() model.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit validates synchronously and, on success, schedules the simulated
// processing delay. An empty snapshot fails with EmptyCartError before any
// field is looked at. The returned task yields the confirmed order.
func (o *Orchestrator) Submit(ctx context.Context, snap Snapshot, form Form, confirm ConfirmFunc) (*deferred.Task[*model.Order], error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == model.CheckoutProcessing {
		return nil, errx.ErrCheckoutInProgress
	}
	o.state = model.CheckoutValidating

	if len(snap.Entries) == 0 {
		o.state = model.CheckoutRejected
		return nil, &errx.EmptyCartError{}
	}
	if err := o.validator.Validate(form); err != nil {
		o.state = model.CheckoutRejected
		return nil, err
	}

	o.state = model.CheckoutProcessing
	o.gen++
	gen := o.gen
	entries := append([]model.CartEntry(nil), snap.Entries...)
	email := form.BillingEmail

	// only Cancel may abort processing, not the submitting caller going away
	o.pending = deferred.Schedule(context.WithoutCancel(ctx), o.delay, func(ctx context.Context) (*model.Order, error) {
		placedAt := o.now()
		order := &model.Order{
			Number:   OrderNumber(placedAt),
			Entries:  entries,
			Total:    model.NewMoney(snap.Total),
			Email:    email,
			PlacedAt: placedAt.UTC(),
		}
		if err := confirm(ctx, order); err != nil {
			o.settle(gen, model.CheckoutRejected)
			logx.Error().Err(err).Str("order", order.Number).Msg("failed to confirm order")
			return nil, err
		}
		o.settle(gen, model.CheckoutConfirmed)
		return order, nil
	})
	return o.pending, nil
}

func (o *Orchestrator) settle(gen uint64, state model.CheckoutState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return
	}
	o.state = state
	o.pending = nil
}

// Pending returns the task of the checkout currently processing, if any.
func (o *Orchestrator) Pending() *deferred.Task[*model.Order] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Cancel aborts a checkout still waiting out its processing delay and
// returns to Idle. It reports false when nothing was pending or the order
// was already being confirmed.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil || !o.pending.Cancel() {
		return false
	}
	o.gen++
	o.pending = nil
	o.state = model.CheckoutIdle
	return true
}

// OrderNumber derives the opaque order identifier from a timestamp.
func OrderNumber(t time.Time) string {
	return "ORD-" + strconv.FormatInt(t.UnixMilli(), 10)
}
