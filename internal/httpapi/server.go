package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/techstore-demo/server/internal/storefront"
	"github.com/techstore-demo/server/internal/storefront/catalog"
	"github.com/techstore-demo/server/internal/storefront/model"
	"github.com/techstore-demo/server/internal/storefront/observers"
	"github.com/techstore-demo/server/internal/storefront/tools"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// ProfileCookie carries the browser profile id a shopper is keyed by.
const ProfileCookie = "techstore_profile"

const profileCookieMaxAge = 365 * 24 * time.Hour

type profileKey struct{}

// ProfileID returns the profile id resolved for the request.
func ProfileID(ctx context.Context) string {
	id, _ := ctx.Value(profileKey{}).(string)
	return id
}

// Handler exposes the storefront over HTTP.
type Handler struct {
	manager *storefront.Manager
	catalog *catalog.Catalog
	tools   *tools.Registry
	cfg     model.HTTPConfig
}

func NewHandler(manager *storefront.Manager, cat *catalog.Catalog, registry *tools.Registry, cfg model.HTTPConfig) *Handler {
	return &Handler{
		manager: manager,
		catalog: cat,
		tools:   registry,
		cfg:     cfg,
	}
}

// RegisterRoutes maps the HTTP endpoints to handler functions.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handleRemoveItem)

	mux.HandleFunc("GET /api/session", h.handleGetSession)
	mux.HandleFunc("POST /api/session/login", h.handleLogin)
	mux.HandleFunc("POST /api/session/register", h.handleRegister)
	mux.HandleFunc("DELETE /api/session", h.handleLogout)
	mux.HandleFunc("POST /api/session/password-reset", h.handlePasswordReset)

	mux.HandleFunc("GET /api/checkout", h.handleCheckoutSummary)
	mux.HandleFunc("POST /api/checkout", h.handlePlaceOrder)
	mux.HandleFunc("DELETE /api/checkout", h.handleCancelCheckout)

	mux.HandleFunc("POST /api/contact", h.handleContact)

	mux.HandleFunc("GET /api/tools", h.handleListTools)
	mux.HandleFunc("POST /api/tools/{name}", h.handleInvokeTool)
}

// Routes returns the full handler chain: request logging, profile
// resolution and a per-request message recorder around the routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return logRequests(h.withProfile(withRecorder(mux)))
}

// withProfile resolves the profile id from its cookie, minting a new one
// when the cookie is missing or malformed.
func (h *Handler) withProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(ProfileCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ProfileCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(profileCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   h.cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			logx.Debug().Str("profile", id).Msg("minted profile id")
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey{}, id)))
	})
}

func withRecorder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := observers.WithRecorder(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logx.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
