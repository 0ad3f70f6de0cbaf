// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - plan.submitted — план отправлен на выполнение
//   - step.completed — шаг выполнен (успешно или с ошибкой)
//   - run.completed  — run завершён, содержит сводку
//
// Exchanges:
//   - perftool.plans   — планы на выполнение
//   - perftool.results — результаты шагов и run
//   - perftool.dlq     — dead letter queue
package mq
