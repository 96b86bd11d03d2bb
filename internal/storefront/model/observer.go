package model

import (
	"context"
	"time"
)

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is a transient notice for the shopper.
type Message struct {
	Text string      `json:"text"`
	Kind MessageKind `json:"kind"`
}

// Section names a view of the storefront the shopper can be sent to.
type Section string

const (
	SectionHome              Section = "home"
	SectionProducts          Section = "products"
	SectionCart              Section = "cart"
	SectionCheckout          Section = "checkout"
	SectionLogin             Section = "login"
	SectionRegister          Section = "register"
	SectionForgotPassword    Section = "forgot-password"
	SectionOrderConfirmation Section = "order-confirmation"
	SectionContact           Section = "contact"
)

// Redirect tells a client to move to Section once After has elapsed. It is
// returned with the acknowledgement, since the deferred Navigate fires after
// the request that scheduled it has been answered.
type Redirect struct {
	Section Section       `json:"section"`
	After   time.Duration `json:"-"`
	AfterMS int64         `json:"after_ms"`
}

func NewRedirect(section Section, after time.Duration) Redirect {
	return Redirect{Section: section, After: after, AfterMS: after.Milliseconds()}
}

// Observer is the display surface. Implementations must be safe for
// concurrent use since deferred continuations report from their own goroutine.
type Observer interface {
	ShowMessage(ctx context.Context, msg Message)
	Navigate(ctx context.Context, section Section)
}
