package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/cart"
	"github.com/techstore-demo/server/internal/storefront/catalog"
	"github.com/techstore-demo/server/internal/storefront/checkout"
	"github.com/techstore-demo/server/internal/storefront/deferred"
	"github.com/techstore-demo/server/internal/storefront/model"
	"github.com/techstore-demo/server/internal/storefront/observers"
	"github.com/techstore-demo/server/internal/storefront/publisher"
	"github.com/techstore-demo/server/internal/storefront/repo"
	"github.com/techstore-demo/server/internal/storefront/session"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// Messages shown to the shopper on success.
const (
	MsgLoginSuccessful    = "Login successful!"
	MsgAccountCreated     = "Account created successfully!"
	MsgLoggedOut          = "Logged out successfully!"
	MsgResetLinkSent      = "Password reset link sent to your email!"
	MsgProcessingPayment  = "Processing payment..."
	MsgOrderPlaced        = "Order placed successfully!"
	MsgCheckoutInProgress = "Your order is already being processed"
	MsgCheckoutCancelled  = "Checkout cancelled"
	MsgContactSent        = "Message sent successfully! We'll get back to you soon."
	MsgContactIncomplete  = "Please fill in all required fields"
)

// AddedToCartMessage is the notice shown after adding a product.
func AddedToCartMessage(name string) string {
	return name + " added to cart!"
}

// Deps are the collaborators shared by every shopper.
type Deps struct {
	Catalog   *catalog.Catalog
	Repo      *repo.StateRepository
	Observer  model.Observer
	Publisher publisher.OrderPublisher
	Checkout  model.CheckoutConfig
	Session   model.SessionConfig
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Observer == nil {
		d.Observer = observers.Relay{}
	}
	if d.Publisher == nil {
		d.Publisher = publisher.LogPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// ContactInput is the contact form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CheckoutSummary is what the checkout view is populated with.
type CheckoutSummary struct {
	Cart    model.CartView      `json:"cart"`
	Prefill checkout.Form       `json:"prefill"`
	State   model.CheckoutState `json:"state"`
}

// Shopper owns the cart, session and checkout of one browser profile. Every
// mutation and the write of its persisted record happen under one lock.
type Shopper struct {
	id   string
	deps Deps

	mu       sync.Mutex
	ledger   *cart.Ledger
	session  *session.State
	checkout *checkout.Orchestrator
	reset    *deferred.Task[struct{}]
}

// restoreShopper loads the persisted cart and currentUser records. Records
// that cannot be decoded are discarded; storage failures are returned.
func restoreShopper(ctx context.Context, id string, deps Deps) (*Shopper, error) {
	deps = deps.withDefaults()
	s := &Shopper{
		id:       id,
		deps:     deps,
		ledger:   cart.New(),
		session:  session.New(deps.Now),
		checkout: checkout.New(deps.Checkout, deps.Now),
	}

	ledger, err := deps.Repo.LoadCart(ctx, id)
	switch {
	case errors.Is(err, repo.ErrCorruptRecord):
		logx.Warn().Err(err).Str("profile", id).Msg("discarding unreadable cart")
	case err != nil:
		return nil, err
	default:
		s.ledger = ledger
	}

	user, err := deps.Repo.LoadUser(ctx, id)
	switch {
	case errors.Is(err, repo.ErrCorruptRecord):
		logx.Warn().Err(err).Str("profile", id).Msg("discarding unreadable session")
	case err != nil:
		return nil, err
	case user != nil:
		s.session.Restore(user)
	}

	logx.Debug().Str("profile", id).Int("entries", s.ledger.Len()).Bool("logged_in", s.session.LoggedIn()).Msg("shopper restored")
	return s, nil
}

// ID is the profile id the shopper is keyed by.
func (s *Shopper) ID() string {
	return s.id
}

func (s *Shopper) success(ctx context.Context, text string) {
	s.deps.Observer.ShowMessage(ctx, model.Message{Text: text, Kind: model.MessageSuccess})
}

func (s *Shopper) failure(ctx context.Context, text string) {
	s.deps.Observer.ShowMessage(ctx, model.Message{Text: text, Kind: model.MessageError})
}

// reportValidation shows the message of a ValidationError and passes err through.
func (s *Shopper) reportValidation(ctx context.Context, err error) error {
	var ve *errx.ValidationError
	if errors.As(err, &ve) {
		s.failure(ctx, ve.Message)
	}
	return err
}

// ================ Catalog ================

// Search filters the catalog; an empty result is not an error.
func (s *Shopper) Search(term string, category model.Category) []model.Product {
	return s.deps.Catalog.Search(term, category)
}

// ================ Cart ================

// Cart returns the current ledger projection.
func (s *Shopper) Cart() model.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.View()
}

// mutateCart applies fn and persists the ledger, restoring the previous
// entries when the write fails. Callers hold s.mu.
func (s *Shopper) mutateCart(ctx context.Context, fn func(l *cart.Ledger)) error {
	prev := s.ledger.Snapshot()
	fn(s.ledger)
	if err := s.deps.Repo.SaveCart(ctx, s.id, s.ledger); err != nil {
		s.ledger = prev
		logx.Error().Err(err).Str("profile", s.id).Msg("failed to persist cart")
		return err
	}
	return nil
}

// AddToCart adds one unit of a catalog product. Unknown ids fail with a
// NotFoundError and leave the cart untouched.
func (s *Shopper) AddToCart(ctx context.Context, productID int) (model.CartEntry, error) {
	p, ok := s.deps.Catalog.FindByID(productID)
	if !ok {
		return model.CartEntry{}, errx.NotFound("product", productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var entry model.CartEntry
	if err := s.mutateCart(ctx, func(l *cart.Ledger) { entry = l.Add(p) }); err != nil {
		return model.CartEntry{}, err
	}
	s.success(ctx, AddedToCartMessage(p.Name))
	return entry, nil
}

// RemoveFromCart deletes the product's entry. Removing an absent entry is a no-op.
func (s *Shopper) RemoveFromCart(ctx context.Context, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ledger.Get(productID); !ok {
		return nil
	}
	return s.mutateCart(ctx, func(l *cart.Ledger) { l.Remove(productID) })
}

// UpdateQuantity changes the entry's quantity by delta, removing it when the
// result is not positive. Absent entries are left alone.
func (s *Shopper) UpdateQuantity(ctx context.Context, productID, delta int) (cart.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ledger.Get(productID); !ok {
		return cart.Unchanged, nil
	}
	var change cart.Change
	if err := s.mutateCart(ctx, func(l *cart.Ledger) { change = l.UpdateQuantity(productID, delta) }); err != nil {
		return cart.Unchanged, err
	}
	return change, nil
}

// ================ Session ================

// CurrentUser returns the session, or nil when logged out.
func (s *Shopper) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Current()
}

func (s *Shopper) establish(ctx context.Context, prev *model.User, user *model.User, msg string) (*model.User, error) {
	if err := s.deps.Repo.SaveUser(ctx, s.id, user); err != nil {
		if prev == nil {
			s.session.Logout()
		} else {
			s.session.Restore(prev)
		}
		logx.Error().Err(err).Str("profile", s.id).Msg("failed to persist session")
		return nil, err
	}
	s.success(ctx, msg)
	s.deps.Observer.Navigate(ctx, model.SectionHome)
	return user, nil
}

// Login establishes a session, replacing any existing one.
func (s *Shopper) Login(ctx context.Context, email, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.session.Current()
	user, err := s.session.Login(email, password)
	if err != nil {
		return nil, s.reportValidation(ctx, err)
	}
	logx.Info().Str("profile", s.id).Msg("shopper logged in")
	return s.establish(ctx, prev, user, MsgLoginSuccessful)
}

// Register validates the registration form and establishes a session.
func (s *Shopper) Register(ctx context.Context, in session.RegisterInput) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.session.Current()
	user, err := s.session.Register(in)
	if err != nil {
		return nil, s.reportValidation(ctx, err)
	}
	logx.Info().Str("profile", s.id).Msg("shopper registered")
	return s.establish(ctx, prev, user, MsgAccountCreated)
}

// Logout clears the session and its persisted record. The cart is kept.
func (s *Shopper) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Logout()
	if err := s.deps.Repo.DeleteUser(ctx, s.id); err != nil {
		logx.Error().Err(err).Str("profile", s.id).Msg("failed to remove persisted session")
		return err
	}
	s.success(ctx, MsgLoggedOut)
	s.deps.Observer.Navigate(ctx, model.SectionHome)
	return nil
}

// RequestPasswordReset acknowledges a reset request and sends the shopper
// back to the login view once the redirect delay has passed. A newer request
// replaces a pending redirect. The returned redirect lets callers that are
// answered before the delay elapses schedule the move themselves.
func (s *Shopper) RequestPasswordReset(ctx context.Context, email string) (model.Redirect, error) {
	if err := session.ValidateResetRequest(email); err != nil {
		return model.Redirect{}, s.reportValidation(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reset != nil {
		s.reset.Cancel()
	}
	s.success(ctx, MsgResetLinkSent)

	redirect := model.NewRedirect(model.SectionLogin, s.deps.Session.ResetRedirectDelay)
	observer := s.deps.Observer
	s.reset = deferred.Schedule(context.WithoutCancel(ctx), redirect.After, func(ctx context.Context) (struct{}, error) {
		observer.Navigate(ctx, redirect.Section)
		return struct{}{}, nil
	})
	return redirect, nil
}

// ================ Checkout ================

// CheckoutSummary returns the cart and a form pre-filled from the session.
// An empty cart sends the shopper back to the cart view.
func (s *Shopper) CheckoutSummary(ctx context.Context) (CheckoutSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.Len() == 0 {
		s.failure(ctx, errx.EmptyCartMessage)
		s.deps.Observer.Navigate(ctx, model.SectionCart)
		return CheckoutSummary{}, &errx.EmptyCartError{}
	}
	return CheckoutSummary{
		Cart:    s.ledger.View(),
		Prefill: checkout.Prefill(s.session.Current()),
		State:   s.checkout.State(),
	}, nil
}

// CheckoutState reports where the shopper is in the checkout flow.
func (s *Shopper) CheckoutState() model.CheckoutState {
	return s.checkout.State()
}

// Checkout validates the form against a snapshot of the cart and starts
// processing. The returned task yields the confirmed order.
func (s *Shopper) Checkout(ctx context.Context, form checkout.Form) (*deferred.Task[*model.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.ledger.Snapshot()
	snap := checkout.Snapshot{Entries: held.Entries(), Total: held.Total()}
	task, err := s.checkout.Submit(ctx, snap, form, s.confirm)
	switch {
	case err == nil:
	case errx.IsEmptyCart(err):
		s.failure(ctx, errx.EmptyCartMessage)
		s.deps.Observer.Navigate(ctx, model.SectionCart)
		return nil, err
	case errors.Is(err, errx.ErrCheckoutInProgress):
		s.failure(ctx, MsgCheckoutInProgress)
		return nil, err
	default:
		return nil, s.reportValidation(ctx, err)
	}

	logx.Info().Str("profile", s.id).Str("state", string(model.CheckoutProcessing)).Str("total", snap.Total.StringFixed(2)).Msg("checkout processing")
	s.success(ctx, MsgProcessingPayment)
	return task, nil
}

// confirm runs on the checkout task once processing has elapsed. The ordered
// quantities leave the cart; anything added while processing stays. It must
// not be called with s.mu held.
func (s *Shopper) confirm(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	err := s.mutateCart(ctx, func(l *cart.Ledger) { l.Deduct(order.Entries) })
	s.mu.Unlock()
	if err != nil {
		return err
	}

	logx.Info().Str("profile", s.id).Str("order", order.Number).Str("state", string(model.CheckoutConfirmed)).Msg("order confirmed")
	s.deps.Observer.Navigate(ctx, model.SectionOrderConfirmation)
	s.success(ctx, MsgOrderPlaced)

	if err := s.deps.Publisher.PublishOrder(ctx, s.id, order); err != nil {
		logx.Warn().Err(err).Str("order", order.Number).Msg("order confirmed but not published")
	}
	return nil
}

// PlaceOrder runs Checkout and waits for the outcome. If ctx ends first the
// order keeps processing and ctx's error is returned.
func (s *Shopper) PlaceOrder(ctx context.Context, form checkout.Form) (*model.Order, error) {
	task, err := s.Checkout(ctx, form)
	if err != nil {
		return nil, err
	}
	order, err := task.Wait(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return nil, errx.ErrCheckoutCancelled
	}
	return order, err
}

// CancelCheckout aborts a checkout still waiting out its processing delay.
// The cart is left untouched.
func (s *Shopper) CancelCheckout(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.checkout.Cancel() {
		return false
	}
	logx.Info().Str("profile", s.id).Str("state", string(model.CheckoutIdle)).Msg("checkout cancelled")
	s.success(ctx, MsgCheckoutCancelled)
	return true
}

// ================ Contact ================

// SubmitContact accepts the contact form. Nothing is sent anywhere.
func (s *Shopper) SubmitContact(ctx context.Context, in ContactInput) error {
	if in.Name == "" || in.Email == "" || in.Subject == "" || in.Message == "" {
		return s.reportValidation(ctx, errx.Validation("required", MsgContactIncomplete))
	}
	logx.Info().Str("profile", s.id).Str("subject", in.Subject).Msg("contact message received")
	s.success(ctx, MsgContactSent)
	return nil
}

// wait blocks until the shopper's pending checkout has settled.
func (s *Shopper) wait(ctx context.Context) error {
	task := s.checkout.Pending()
	if task == nil {
		return nil
	}
	_, err := task.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	return nil
}
