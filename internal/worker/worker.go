package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/mq"
	"github.com/shaiso/Flagship/internal/step"
	"github.com/shaiso/Flagship/internal/telemetry"
)

// Default configuration values.
const (
	defaultPrefetch      = 5
	defaultInvokeTimeout = 30 * time.Second
)

// StepStore — источник объявлений шагов.
type StepStore interface {
	GetByID(ctx context.Context, id string) (*domain.StepDoc, error)
}

// OutputStore — аккумулятор run на стороне хоста.
type OutputStore interface {
	Load(ctx context.Context, runID uuid.UUID) (*engine.Context, error)
	Record(ctx context.Context, runID uuid.UUID, stepRef string, output any, status domain.InvocationStatus) error
}

// ResultPublisher публикует результаты вызовов.
type ResultPublisher interface {
	PublishStepCompleted(ctx context.Context, payload mq.StepCompletedPayload) error
}

// Worker вызывает сохранённые шаги по сообщениям step.invoke.
//
// Worker не хранит состояния между сообщениями: объявление шага и
// аккумулятор run читаются заново на каждый вызов. Несколько экземпляров
// могут потреблять из одной очереди.
type Worker struct {
	steps     StepStore
	outputs   OutputStore
	publisher ResultPublisher
	builder   *step.Builder
	metrics   *telemetry.Metrics

	conn     *mq.Connection
	consumer *mq.Consumer

	invokeTimeout time.Duration
	prefetch      int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Steps     StepStore
	Outputs   OutputStore
	Publisher ResultPublisher

	// Builder собирает шаги из документов (каталоги actions и фильтров, emitter).
	Builder *step.Builder

	// Metrics — опционально.
	Metrics *telemetry.Metrics

	// Conn — соединение для consumer. Нужно только для Start.
	Conn *mq.Connection

	InvokeTimeout time.Duration // таймаут одного вызова (default: 30s)
	Prefetch      int           // prefetch consumer (default: 5)

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	timeout := cfg.InvokeTimeout
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		steps:         cfg.Steps,
		outputs:       cfg.Outputs,
		publisher:     cfg.Publisher,
		builder:       cfg.Builder,
		metrics:       cfg.Metrics,
		conn:          cfg.Conn,
		invokeTimeout: timeout,
		prefetch:      prefetch,
		logger:        logger,
	}
}

// Start запускает consumer очереди steps.invoke.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"invoke_timeout", w.invokeTimeout,
		"prefetch", w.prefetch,
	)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueStepsInvoke),
		Handler:  w.handleInvoke,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("invoke consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт текущий вызов.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
