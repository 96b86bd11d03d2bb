package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/model"
	"github.com/techstore-demo/server/internal/storefront/observers"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// Envelope wraps every response with what the shopper was shown while the
// request was handled.
type Envelope struct {
	Data     any             `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
	Messages []model.Message `json:"messages"`
	Section  model.Section   `json:"section,omitempty"`
}

func envelope(r *http.Request) Envelope {
	env := Envelope{Messages: []model.Message{}}
	if rec := observers.FromContext(r.Context()); rec != nil {
		env.Messages = rec.Messages()
		env.Section = rec.Section()
	}
	return env
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to write response")
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	env := envelope(r)
	env.Data = data
	writeJSON(w, status, env)
}

// fail maps err onto a status and a stable error code. Internal details are
// logged, never returned.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.Status(err)
	env := envelope(r)
	env.Error, env.Message = describe(status, err)

	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, env)
}

func describe(status int, err error) (code, message string) {
	var (
		ve  *errx.ValidationError
		app *errx.AppError
	)
	switch {
	case errors.As(err, &ve):
		return "INVALID_INPUT", ve.Message
	case errx.IsEmptyCart(err):
		return "EMPTY_CART", errx.EmptyCartMessage
	case errx.IsNotFound(err):
		return "NOT_FOUND", err.Error()
	case errors.Is(err, errx.ErrCheckoutInProgress):
		return "CHECKOUT_IN_PROGRESS", err.Error()
	case errors.Is(err, errx.ErrCheckoutCancelled):
		return "CHECKOUT_CANCELLED", err.Error()
	case errors.As(err, &app) && status == http.StatusBadGateway:
		return "STORAGE_UNAVAILABLE", app.Message
	default:
		return "INTERNAL_ERROR", errx.SystemErrorMessage
	}
}
