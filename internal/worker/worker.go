package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/runner"
	"github.com/shaiso/Perftool/internal/steps"
	"github.com/shaiso/Perftool/internal/telemetry"
)

// Планы выполняются по одному: бенчмарки одного воркера не должны
// конкурировать за движок.
const defaultPrefetch = 1

// Worker выполняет планы из очереди plans.submitted.
//
// Worker:
//   - Получает планы из RabbitMQ
//   - Валидирует план (невалидный план подтверждается и логируется)
//   - Выполняет план через runner.Runner
//   - Публикует step.completed и run.completed
//
// Несколько воркеров могут потреблять из одной очереди.
type Worker struct {
	conn *mq.Connection

	registry  *steps.Registry
	store     runner.Store
	publisher runner.Publisher
	metrics   *telemetry.Metrics

	consumer *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Registry — типы шагов.
	Registry *steps.Registry

	// Store — хранилище результатов (опционально). Используется
	// для планов, отправленных с persist.
	Store runner.Store

	// Publisher — публикация событий (опционально).
	Publisher runner.Publisher

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		conn:      cfg.Conn,
		registry:  cfg.Registry,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Start запускает потребление plans.submitted.
func (w *Worker) Start(ctx context.Context) error {
	if w.IsStopped() {
		return ErrWorkerStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "steps", w.registry.Names())

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueuePlansSubmitted),
		Handler:  w.handlePlanSubmitted,
		Prefetch: defaultPrefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("plan consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего плана.
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
