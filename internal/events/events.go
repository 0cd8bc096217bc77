package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind — тип события шага.
type Kind string

// Типы событий.
const (
	// KindValidationSucceeded — вход и аргументы прошли все проверки.
	// Отправляется до вызова action, а не после.
	KindValidationSucceeded Kind = "step.validation_succeeded"

	// KindFailed — вызов шага завершился неудачей.
	KindFailed Kind = "step.failed"
)

// Event — уведомление о шаге.
type Event struct {
	Kind      Kind      `json:"kind"`
	StepID    string    `json:"step_id"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"` // причина для KindFailed: invalid_input, resolution_failed, execution_error
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter — получатель событий.
//
// Emit вызывается синхронно внутри Invoke и не должен блокироваться надолго.
// Шаг не зависит от того, есть ли у события потребители.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Handler — подписчик Bus.
type Handler func(ctx context.Context, e Event)

// Discard — Emitter, который ничего не делает.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// Bus — синхронная шина событий внутри процесса.
//
// Подписчики вызываются в порядке подписки. Паника подписчика
// перехватывается и логируется, остальные подписчики всё равно получают событие.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	all      []Handler
	logger   *slog.Logger
}

// NewBus создаёт пустую шину.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Subscribe подписывает handler на события указанного типа.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// SubscribeAll подписывает handler на все события.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Emit реализует Emitter.
func (b *Bus) Emit(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[e.Kind])+len(b.all))
	handlers = append(handlers, b.handlers[e.Kind]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"kind", e.Kind,
				"step_id", e.StepID,
				"panic", r,
			)
		}
	}()
	h(ctx, e)
}

// Recorder — Emitter, запоминающий события. Потокобезопасен.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit реализует Emitter.
func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events возвращает копию записанных событий.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds возвращает типы записанных событий по порядку.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Reset очищает записанные события.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
