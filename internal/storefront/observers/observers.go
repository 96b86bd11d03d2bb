package observers

import (
	"context"
	"sync"

	"github.com/techstore-demo/server/internal/storefront/model"
	logx "github.com/techstore-demo/server/pkg/logger"
)

type recorderKey struct{}

// Recorder collects what was shown to the shopper while handling one request.
type Recorder struct {
	mu       sync.Mutex
	messages []model.Message
	section  model.Section
}

// WithRecorder attaches a fresh Recorder to ctx.
func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return context.WithValue(ctx, recorderKey{}, r), r
}

// FromContext returns the Recorder attached to ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

func (r *Recorder) ShowMessage(_ context.Context, msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *Recorder) Navigate(_ context.Context, section model.Section) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.section = section
}

// Messages returns the messages in the order they were shown.
func (r *Recorder) Messages() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Message(nil), r.messages...)
}

// Section is the last section navigated to, empty if none.
func (r *Recorder) Section() model.Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.section
}

// Relay logs every notice and forwards it to the Recorder carried by the
// context, if any.
type Relay struct{}

func (Relay) ShowMessage(ctx context.Context, msg model.Message) {
	ev := logx.Debug()
	if msg.Kind == model.MessageError {
		ev = logx.Info()
	}
	ev.Str("kind", string(msg.Kind)).Str("text", msg.Text).Msg("shopper message")

	if r := FromContext(ctx); r != nil {
		r.ShowMessage(ctx, msg)
	}
}

func (Relay) Navigate(ctx context.Context, section model.Section) {
	logx.Debug().Str("section", string(section)).Msg("shopper navigated")

	if r := FromContext(ctx); r != nil {
		r.Navigate(ctx, section)
	}
}

var (
	_ model.Observer = (*Recorder)(nil)
	_ model.Observer = Relay{}
)
