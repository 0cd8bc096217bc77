// Flagship Worker — вызывает сохранённые шаги по сообщениям из RabbitMQ.
//
// Worker:
//   - Получает запросы step.invoke из очереди steps.invoke
//   - Собирает шаг из объявления в PostgreSQL и вызывает его
//   - Записывает выход в аккумулятор run и публикует step.completed
//   - Публикует события шагов в flagship.events
//
// Конфигурация: YAML файл из FLAGSHIP_CONFIG (опционально) и переменные окружения.
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Flagship/internal/action"
	"github.com/shaiso/Flagship/internal/config"
	"github.com/shaiso/Flagship/internal/events"
	"github.com/shaiso/Flagship/internal/filter"
	"github.com/shaiso/Flagship/internal/mq"
	"github.com/shaiso/Flagship/internal/repo"
	"github.com/shaiso/Flagship/internal/step"
	"github.com/shaiso/Flagship/internal/telemetry"
	"github.com/shaiso/Flagship/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("FLAGSHIP_CONFIG"))
	if err != nil {
		// Логгер ещё не настроен
		telemetry.SetupLogger("INFO", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("starting flagship-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DB.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.MQ.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Debug("topology ready", "topology", mq.TopologyInfo())

	publisher := mq.NewPublisher(mqConn, logger)

	// События шагов: метрики + публикация в flagship.events
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	bus := events.NewBus(logger)
	bus.SubscribeAll(metrics.HandleEvent)
	bus.SubscribeAll(publisher.EventHandler())

	builder := step.NewBuilder(
		action.DefaultRegistry(),
		filter.DefaultRegistry(),
		step.WithEmitter(bus),
	)

	w := worker.New(worker.Config{
		Steps:         repo.NewStepRepo(pool),
		Outputs:       repo.NewOutputRepo(pool),
		Publisher:     publisher,
		Builder:       builder,
		Metrics:       metrics,
		Conn:          mqConn,
		InvokeTimeout: cfg.Worker.InvokeTimeout,
		Prefetch:      cfg.Worker.Prefetch,
		Logger:        logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("listening", "addr", cfg.Addr())
		if err := http.ListenAndServe(cfg.Addr(), mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("flagship-worker stopped")
}
