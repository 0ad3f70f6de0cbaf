// Package worker выполняет планы, отправленные через RabbitMQ.
//
// # Обзор
//
// Worker потребляет очередь plans.submitted (prefetch 1: один план за раз),
// разбирает план через engine.ParsePlanBytes, валидирует его по реестру
// шагов и выполняет через runner.Runner. Результаты шагов и итог run
// публикуются в perftool.results.
//
//	w := worker.New(worker.Config{
//	    Conn:      mqConn,
//	    Registry:  steps.DefaultRegistry(engineClient),
//	    Store:     repo.NewStore(pool),
//	    Publisher: publisher,
//	    Metrics:   telemetry.NewMetrics(nil),
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Подтверждение сообщений
//
//   - Невалидный план подтверждается (ack) и логируется: повтор его не исправит.
//   - Упавший шаг тоже подтверждается: run завершён со статусом FAILED.
//   - Если воркер остановлен во время выполнения, план возвращается в очередь.
//   - Нечитаемое сообщение отклоняется без возврата и попадает в dlq.plans.
//
// Retry шагов не выполняется.
package worker
