package runtime

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/internal/platform/privacylog"
)

type NotificationEvent = contracts.NotificationEvent

func nowUTC() time.Time {
	return time.Now().UTC()
}

// NotificationHub fans daemon events out to stream subscribers and keeps a
// bounded history so reconnecting clients can replay from a cursor.
type NotificationHub struct {
	mu      sync.Mutex
	nextSeq int64
	limit   int
	history []NotificationEvent
	subs    map[int]chan NotificationEvent
	nextSub int
}

func NewNotificationHub(limit int) *NotificationHub {
	if limit < 1 {
		limit = 1
	}
	return &NotificationHub{
		limit: limit,
		subs:  make(map[int]chan NotificationEvent),
	}
}

// Publish records the event and delivers it to every subscriber. A subscriber
// whose buffer is full is dropped; it can resubscribe from its last seq.
func (h *NotificationHub) Publish(method string, payload any) NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	event := NotificationEvent{
		Seq:       h.nextSeq,
		Method:    method,
		Payload:   payload,
		Timestamp: nowUTC(),
	}
	h.history = append(h.history, event)
	if len(h.history) > h.limit {
		h.history = append([]NotificationEvent(nil), h.history[len(h.history)-h.limit:]...)
	}

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			close(ch)
			delete(h.subs, id)
		}
	}
	return event
}

func (h *NotificationHub) Subscribe(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	replay := make([]NotificationEvent, 0)
	for _, event := range h.history {
		if event.Seq > fromSeq {
			replay = append(replay, event)
		}
	}

	id := h.nextSub
	h.nextSub++
	ch := make(chan NotificationEvent, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			close(sub)
			delete(h.subs, id)
		}
	}
	return replay, ch, cancel
}

func (h *NotificationHub) BacklogSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

// ServiceRuntime tracks whether the daemon is started and owns the context of
// its background work.
type ServiceRuntime struct {
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewServiceRuntime() *ServiceRuntime {
	return &ServiceRuntime{}
}

func (r *ServiceRuntime) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// TryActivate starts the runtime. The returned context outlives the caller's
// request but is cancelled by Deactivate.
func (r *ServiceRuntime) TryActivate(parent context.Context) (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil, false
	}
	r.ctx, r.cancel = context.WithCancel(context.WithoutCancel(parent))
	r.running = true
	return r.ctx, true
}

// Context returns the runtime context while the runtime is started.
func (r *ServiceRuntime) Context() (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil, false
	}
	return r.ctx, true
}

// Go runs fn on the runtime context. It is a no-op when the runtime is stopped.
func (r *ServiceRuntime) Go(fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return false
	}
	ctx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()
	go func() {
		defer r.wg.Done()
		fn(ctx)
	}()
	return true
}

// Deactivate cancels background work and waits for it, bounded by ctx.
func (r *ServiceRuntime) Deactivate(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.ctx, r.cancel = nil, nil
	r.mu.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewLogger builds the JSON logger used by the daemon. Account ids and
// secrets are scrubbed by privacylog before they reach w.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(privacylog.WrapHandler(handler))
}

func DefaultLogger() *slog.Logger {
	return NewLogger(os.Stdout, os.Getenv("LOR_LOG_LEVEL"))
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
