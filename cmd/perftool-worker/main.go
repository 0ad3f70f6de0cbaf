// Perftool Worker — выполняет планы, отправленные через RabbitMQ.
//
// Worker:
//   - Получает планы из очереди plans.submitted
//   - Выполняет шаги против поискового движка (ENGINE_URL)
//   - Сохраняет run в PostgreSQL, если план отправлен с persist
//   - Публикует step.completed и run.completed
//
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

	"github.com/shaiso/Perftool/internal/client"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/repo"
	"github.com/shaiso/Perftool/internal/steps"
	"github.com/shaiso/Perftool/internal/telemetry"
	"github.com/shaiso/Perftool/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting perftool-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
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
	mqConn, err := mq.Dial(mq.ConnectionConfig{Name: "perftool-worker", Reconnect: true, Logger: logger})
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	engineCfg := client.ConfigFromEnv()
	logger.Info("search engine", "url", engineCfg.URL)

	// Создаём worker
	w := worker.New(worker.Config{
		Conn:      mqConn,
		Registry:  steps.DefaultRegistry(client.New(engineCfg)),
		Store:     repo.NewStore(pool),
		Publisher: mq.NewPublisher(mqConn, logger),
		Metrics:   telemetry.NewMetrics(prometheus.DefaultRegisterer),
		Logger:    logger,
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

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("perftool-worker stopped")
}
