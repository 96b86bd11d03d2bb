package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/cart"
	"github.com/techstore-demo/server/internal/storefront/catalog"
	"github.com/techstore-demo/server/internal/storefront/checkout"
	"github.com/techstore-demo/server/internal/storefront/model"
	"github.com/techstore-demo/server/internal/storefront/observers"
	"github.com/techstore-demo/server/internal/storefront/repo"
	"github.com/techstore-demo/server/internal/storefront/session"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// flakyStorage fails writes while broken is set.
type flakyStorage struct {
	*repo.MemoryStorage
	broken atomic.Bool
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	if f.broken.Load() {
		return errx.New(errors.New("connection refused"), 502, errx.RedisErrorMessage)
	}
	return f.MemoryStorage.Set(ctx, key, value)
}

type capturePublisher struct {
	mu     sync.Mutex
	orders []*model.Order
}

func (c *capturePublisher) PublishOrder(_ context.Context, _ string, o *model.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, o)
	return nil
}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

type fixture struct {
	storage   *flakyStorage
	repo      *repo.StateRepository
	rec       *observers.Recorder
	publisher *capturePublisher
	manager   *Manager
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		storage:   &flakyStorage{MemoryStorage: repo.NewMemoryStorage()},
		rec:       &observers.Recorder{},
		publisher: &capturePublisher{},
	}
	f.repo = repo.NewStateRepository(f.storage, "techstore")
	f.manager = NewManager(Deps{
		Catalog:   catalog.Default(),
		Repo:      f.repo,
		Observer:  f.rec,
		Publisher: f.publisher,
		Checkout:  model.CheckoutConfig{ProcessingDelay: delay},
		Session:   model.SessionConfig{ResetRedirectDelay: delay},
		Now:       func() time.Time { return now },
	})
	return f
}

func (f *fixture) shopper(t *testing.T, id string) *Shopper {
	t.Helper()
	s, err := f.manager.Shopper(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) lastMessage() model.Message {
	msgs := f.rec.Messages()
	if len(msgs) == 0 {
		return model.Message{}
	}
	return msgs[len(msgs)-1]
}

func quantities(entries []model.CartEntry) map[int]int {
	out := make(map[int]int, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Quantity
	}
	return out
}

func validForm() checkout.Form {
	return checkout.Form{
		BillingName:    "Ada Lovelace",
		BillingEmail:   "ada@example.com",
		BillingAddress: "12 Analytical Row",
		BillingCity:    "London",
		BillingState:   "LDN",
		BillingZip:     "N1 9GU",
		SameAsBilling:  true,
		CardNumber:     "4111 1111 1111 1111",
		ExpiryDate:     "12/29",
		CVV:            "123",
		CardholderName: "A LOVELACE",
	}
}

func TestShopper_AddToCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")

	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, 2)
	require.NoError(t, err)
	entry, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Quantity)

	view := s.Cart()
	assert.Equal(t, "5999.97", view.Total.StringFixed(2))
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, model.Message{Text: `MacBook Pro 16" added to cart!`, Kind: model.MessageSuccess}, f.lastMessage())

	persisted, err := f.repo.LoadCart(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.Len())
}

func TestShopper_AddUnknownProduct(t *testing.T) {
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")

	_, err := s.AddToCart(context.Background(), 42)
	assert.True(t, errx.IsNotFound(err))
	assert.Empty(t, s.Cart().Entries)
	assert.Empty(t, f.rec.Messages())
}

func TestShopper_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 3)
	require.NoError(t, err)

	change, err := s.UpdateQuantity(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, cart.Updated, change)
	assert.Equal(t, 3, s.Cart().ItemCount)

	change, err = s.UpdateQuantity(ctx, 99, 1)
	require.NoError(t, err)
	assert.Equal(t, cart.Unchanged, change)

	change, err = s.UpdateQuantity(ctx, 3, -5)
	require.NoError(t, err)
	assert.Equal(t, cart.Removed, change)
	assert.Empty(t, s.Cart().Entries)

	require.NoError(t, s.RemoveFromCart(ctx, 3))
	persisted, err := f.repo.LoadCart(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, persisted.Len())
}

func TestShopper_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)

	f.storage.broken.Store(true)
	_, err = s.AddToCart(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, 502, errx.Status(err))
	assert.Equal(t, 1, s.Cart().ItemCount)

	_, err = s.Login(ctx, "ada@example.com", "secret")
	require.Error(t, err)
	assert.Nil(t, s.CurrentUser())
}

func TestShopper_RestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 5)
	require.NoError(t, err)
	_, err = s.Login(ctx, "ada@example.com", "pw1")
	require.NoError(t, err)

	restarted := NewManager(Deps{Catalog: catalog.Default(), Repo: f.repo})
	again, err := restarted.Shopper(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, quantities(s.Cart().Entries), quantities(again.Cart().Entries))
	assert.True(t, s.Cart().Total.Equal(again.Cart().Total.Decimal))
	require.NotNil(t, again.CurrentUser())
	assert.Equal(t, "ada", again.CurrentUser().Name)
}

func TestShopper_DiscardsCorruptRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	require.NoError(t, f.storage.Set(ctx, "techstore:p1:cart", "not json"))
	require.NoError(t, f.storage.Set(ctx, "techstore:p1:currentUser", "{"))

	s := f.shopper(t, "p1")
	assert.Empty(t, s.Cart().Entries)
	assert.Nil(t, s.CurrentUser())
}

func TestShopper_Session(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")

	_, err := s.Login(ctx, "ada@example.com", "pw")
	require.True(t, errx.IsValidation(err))
	assert.Equal(t, model.Message{Text: session.MsgLoginPasswordTooShort, Kind: model.MessageError}, f.lastMessage())

	u, err := s.Login(ctx, "ada@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Name)
	assert.Equal(t, MsgLoginSuccessful, f.lastMessage().Text)
	assert.Equal(t, model.SectionHome, f.rec.Section())

	u, err = s.Register(ctx, session.RegisterInput{
		Name: "Grace", Email: "grace@example.com", Password: "secret1", ConfirmPassword: "secret1", TermsAccepted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.Name)
	assert.Equal(t, MsgAccountCreated, f.lastMessage().Text)

	_, err = s.AddToCart(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.CurrentUser())
	assert.Equal(t, MsgLoggedOut, f.lastMessage().Text)
	assert.Equal(t, 1, s.Cart().ItemCount)

	stored, err := f.repo.LoadUser(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestShopper_RequestPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Millisecond)
	s := f.shopper(t, "p1")

	_, err := s.RequestPasswordReset(ctx, "")
	require.True(t, errx.IsValidation(err))
	assert.Equal(t, session.MsgResetEmailRequired, f.lastMessage().Text)

	redirect, err := s.RequestPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.SectionLogin, redirect.Section)
	assert.Equal(t, int64(10), redirect.AfterMS)
	assert.Equal(t, MsgResetLinkSent, f.lastMessage().Text)
	assert.Eventually(t, func() bool { return f.rec.Section() == model.SectionLogin }, time.Second, 5*time.Millisecond)
}

func TestShopper_CheckoutSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")

	_, err := s.CheckoutSummary(ctx)
	require.True(t, errx.IsEmptyCart(err))
	assert.Equal(t, model.Message{Text: "Your cart is empty", Kind: model.MessageError}, f.lastMessage())
	assert.Equal(t, model.SectionCart, f.rec.Section())

	_, err = s.AddToCart(ctx, 4)
	require.NoError(t, err)
	_, err = s.Login(ctx, "ada@example.com", "pw1")
	require.NoError(t, err)

	sum, err := s.CheckoutSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "599.99", sum.Cart.Total.StringFixed(2))
	assert.Equal(t, "ada", sum.Prefill.BillingName)
	assert.Equal(t, "ada@example.com", sum.Prefill.BillingEmail)
	assert.Equal(t, model.CheckoutIdle, sum.State)
}

func TestShopper_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5*time.Millisecond)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, 2)
	require.NoError(t, err)

	order, err := s.PlaceOrder(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, "ORD-1792152000000", order.Number)
	assert.Equal(t, "3499.98", order.Total.StringFixed(2))
	assert.Len(t, order.Entries, 2)
	assert.Equal(t, "ada@example.com", order.Email)

	assert.Empty(t, s.Cart().Entries)
	assert.Equal(t, model.CheckoutConfirmed, s.CheckoutState())
	assert.Equal(t, model.SectionOrderConfirmation, f.rec.Section())

	var texts []string
	for _, m := range f.rec.Messages() {
		texts = append(texts, m.Text)
	}
	assert.Subset(t, texts, []string{MsgProcessingPayment, MsgOrderPlaced})
	assert.Equal(t, 1, f.publisher.count())

	persisted, err := f.repo.LoadCart(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, persisted.Len())
}

func TestShopper_ConfirmKeepsItemsAddedWhileProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50*time.Millisecond)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 2)
	require.NoError(t, err)

	task, err := s.Checkout(ctx, validForm())
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, 2)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, 7)
	require.NoError(t, err)

	order, err := task.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2: 1}, quantities(order.Entries))
	assert.Equal(t, "999.99", order.Total.StringFixed(2))

	assert.Equal(t, map[int]int{2: 1, 7: 1}, quantities(s.Cart().Entries))
	persisted, err := f.repo.LoadCart(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2: 1, 7: 1}, quantities(persisted.Entries()))
}

func TestShopper_CheckoutRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	s := f.shopper(t, "p1")

	_, err := s.Checkout(ctx, validForm())
	require.True(t, errx.IsEmptyCart(err))
	assert.Equal(t, model.SectionCart, f.rec.Section())

	_, err = s.AddToCart(ctx, 7)
	require.NoError(t, err)

	bad := validForm()
	bad.BillingEmail = ""
	_, err = s.Checkout(ctx, bad)
	require.True(t, errx.IsValidation(err))
	assert.Equal(t, "Please fill in the billing email field", f.lastMessage().Text)
	assert.Equal(t, model.CheckoutRejected, s.CheckoutState())

	_, err = s.Checkout(ctx, validForm())
	require.NoError(t, err)
	_, err = s.Checkout(ctx, validForm())
	assert.ErrorIs(t, err, errx.ErrCheckoutInProgress)
	assert.Equal(t, MsgCheckoutInProgress, f.lastMessage().Text)

	assert.True(t, s.CancelCheckout(ctx))
	assert.False(t, s.CancelCheckout(ctx))
	assert.Equal(t, model.CheckoutIdle, s.CheckoutState())
	assert.Equal(t, 1, s.Cart().ItemCount)
	assert.Zero(t, f.publisher.count())
}

func TestShopper_PlaceOrderCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 7)
	require.NoError(t, err)

	go func() {
		assert.Eventually(t, func() bool { return s.CheckoutState() == model.CheckoutProcessing }, time.Second, time.Millisecond)
		s.CancelCheckout(ctx)
	}()

	_, err = s.PlaceOrder(ctx, validForm())
	assert.ErrorIs(t, err, errx.ErrCheckoutCancelled)
	assert.Equal(t, 1, s.Cart().ItemCount)
}

func TestShopper_ConfirmFailureRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5*time.Millisecond)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 7)
	require.NoError(t, err)

	task, err := s.Checkout(ctx, validForm())
	require.NoError(t, err)
	f.storage.broken.Store(true)

	_, err = task.Wait(ctx)
	require.Error(t, err)
	assert.Equal(t, model.CheckoutRejected, s.CheckoutState())
	assert.Equal(t, 1, s.Cart().ItemCount)
	assert.Zero(t, f.publisher.count())
}

func TestShopper_SubmitContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")

	err := s.SubmitContact(ctx, ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "Hi"})
	require.True(t, errx.IsValidation(err))
	assert.Equal(t, MsgContactIncomplete, f.lastMessage().Text)

	require.NoError(t, s.SubmitContact(ctx, ContactInput{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}))
	assert.Equal(t, model.Message{Text: MsgContactSent, Kind: model.MessageSuccess}, f.lastMessage())
}

func TestShopper_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	s := f.shopper(t, "p1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := s.AddToCart(ctx, id)
			assert.NoError(t, err)
		}(i%8 + 1)
	}
	wg.Wait()

	view := s.Cart()
	assert.Equal(t, 50, view.ItemCount)
	assert.Len(t, view.Entries, 8)

	persisted, err := f.repo.LoadCart(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, quantities(view.Entries), quantities(persisted.Entries()))
}

func TestManager_CachesShoppers(t *testing.T) {
	f := newFixture(t, 0)
	a := f.shopper(t, "p1")
	b := f.shopper(t, "p1")
	c := f.shopper(t, "p2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, f.manager.Len())
	assert.NoError(t, f.manager.Shutdown(context.Background()))
}

func TestManager_ShutdownWaitsForCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20*time.Millisecond)
	s := f.shopper(t, "p1")
	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	_, err = s.Checkout(ctx, validForm())
	require.NoError(t, err)

	require.NoError(t, f.manager.Shutdown(ctx))
	assert.Equal(t, model.CheckoutConfirmed, s.CheckoutState())
	assert.Equal(t, 1, f.publisher.count())
}
