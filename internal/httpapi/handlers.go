package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront"
	"github.com/techstore-demo/server/internal/storefront/cart"
	"github.com/techstore-demo/server/internal/storefront/checkout"
	"github.com/techstore-demo/server/internal/storefront/model"
	"github.com/techstore-demo/server/internal/storefront/session"
)

const maxBodyBytes = 1 << 20

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errx.Validation("body", "Invalid JSON payload")
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return 0, errx.Validation("id", "id must be a positive integer")
	}
	return id, nil
}

func (h *Handler) shopper(w http.ResponseWriter, r *http.Request) (*storefront.Shopper, bool) {
	s, err := h.manager.Shopper(r.Context(), ProfileID(r.Context()))
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ================ Products ================

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		fail(w, r, errx.Validation("category", "Unknown category"))
		return
	}
	respond(w, r, http.StatusOK, h.catalog.Search(r.URL.Query().Get("q"), category))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, ok := h.catalog.FindByID(id)
	if !ok {
		fail(w, r, errx.NotFound("product", id))
		return
	}
	respond(w, r, http.StatusOK, p)
}

// ================ Cart ================

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, s.Cart())
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	var payload struct {
		ProductID int `json:"product_id"`
	}
	if err := decode(r, &payload); err != nil {
		fail(w, r, err)
		return
	}
	if payload.ProductID < 1 {
		fail(w, r, errx.Validation("product_id", "product_id must be a positive integer"))
		return
	}

	entry, err := s.AddToCart(r.Context(), payload.ProductID)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"entry": entry, "cart": s.Cart()})
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var payload struct {
		Delta int `json:"delta"`
	}
	if err := decode(r, &payload); err != nil {
		fail(w, r, err)
		return
	}
	if payload.Delta < -cart.MaxQuantity || payload.Delta > cart.MaxQuantity {
		fail(w, r, errx.Validation("delta", fmt.Sprintf("delta must be between %d and %d", -cart.MaxQuantity, cart.MaxQuantity)))
		return
	}

	change, err := s.UpdateQuantity(r.Context(), id, payload.Delta)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"change": change.String(), "cart": s.Cart()})
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.RemoveFromCart(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, s.Cart())
}

// ================ Session ================

type sessionView struct {
	LoggedIn bool        `json:"logged_in"`
	User     *model.User `json:"user"`
}

func newSessionView(u *model.User) sessionView {
	return sessionView{LoggedIn: u != nil, User: u}
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, newSessionView(s.CurrentUser()))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &payload); err != nil {
		fail(w, r, err)
		return
	}

	u, err := s.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newSessionView(u))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	var in session.RegisterInput
	if err := decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}

	u, err := s.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, newSessionView(u))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	if err := s.Logout(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, newSessionView(nil))
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := decode(r, &payload); err != nil {
		fail(w, r, err)
		return
	}
	redirect, err := s.RequestPasswordReset(r.Context(), payload.Email)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusAccepted, redirect)
}

// ================ Checkout ================

func (h *Handler) handleCheckoutSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	sum, err := s.CheckoutSummary(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, sum)
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	var form checkout.Form
	if err := decode(r, &form); err != nil {
		fail(w, r, err)
		return
	}

	order, err := s.PlaceOrder(r.Context(), form)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, order)
}

func (h *Handler) handleCancelCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	cancelled := s.CancelCheckout(r.Context())
	respond(w, r, http.StatusOK, map[string]any{"cancelled": cancelled, "state": s.CheckoutState()})
}

// ================ Contact ================

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	var in storefront.ContactInput
	if err := decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if err := s.SubmitContact(r.Context(), in); err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusAccepted, nil)
}

// ================ Tools ================

func (h *Handler) handleListTools(w http.ResponseWriter, r *http.Request) {
	infos, err := h.tools.Infos(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	type toolView struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	views := make([]toolView, 0, len(infos))
	for _, info := range infos {
		views = append(views, toolView{Name: info.Name, Description: info.Desc})
	}
	respond(w, r, http.StatusOK, views)
}

func (h *Handler) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	s, ok := h.shopper(w, r)
	if !ok {
		return
	}
	args, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		fail(w, r, errx.Validation("body", "Invalid JSON payload"))
		return
	}
	if len(args) == 0 {
		args = []byte("{}")
	}

	out, err := h.tools.Invoke(r.Context(), s, r.PathValue("name"), string(args))
	if err != nil {
		// tool failures that are not a known kind are bad arguments
		if errx.Status(err) == http.StatusInternalServerError {
			err = errx.Validation("arguments", err.Error())
		}
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, json.RawMessage(out))
}
