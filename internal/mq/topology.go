package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangePlans   Exchange = "perftool.plans"
	ExchangeResults Exchange = "perftool.results"
	ExchangeDLQ     Exchange = "perftool.dlq"
)

// Queues — имена очередей.
const (
	QueuePlansSubmitted Queue = "plans.submitted"
	QueueStepsCompleted Queue = "steps.completed"
	QueueRunsCompleted  Queue = "runs.completed"
	QueueDLQPlans       Queue = "dlq.plans"
)

// Routing keys.
const (
	RoutingKeySubmitted     RoutingKey = "submitted"
	RoutingKeyStepCompleted RoutingKey = "step.completed"
	RoutingKeyRunCompleted  RoutingKey = "run.completed"
	RoutingKeyDLQPlans      RoutingKey = "plans"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// topology возвращает объявления exchanges, queues и bindings.
func topology() ([]exchangeDecl, []queueDecl, []binding) {
	exchanges := []exchangeDecl{
		{ExchangePlans, "direct"},
		{ExchangeResults, "direct"},
		{ExchangeDLQ, "direct"},
	}

	// Отклонённые планы уходят в DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQPlans),
	}

	queues := []queueDecl{
		{QueuePlansSubmitted, dlqArgs},
		{QueueStepsCompleted, nil},
		{QueueRunsCompleted, nil},
		{QueueDLQPlans, nil},
	}

	bindings := []binding{
		{QueuePlansSubmitted, RoutingKeySubmitted, ExchangePlans},
		{QueueStepsCompleted, RoutingKeyStepCompleted, ExchangeResults},
		{QueueRunsCompleted, RoutingKeyRunCompleted, ExchangeResults},
		{QueueDLQPlans, RoutingKeyDLQPlans, ExchangeDLQ},
	}

	return exchanges, queues, bindings
}

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	exchanges, queues, bindings := topology()

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Perftool RabbitMQ Topology:

    perftool.plans (direct)
    └── plans.submitted [routing: submitted]
            Consumer: perftool-worker
            DLQ: dlq.plans

    perftool.results (direct)
    ├── steps.completed [routing: step.completed]
    └── runs.completed [routing: run.completed]
            Consumers: external (dashboards, archivers)

    perftool.dlq (direct)
    └── dlq.plans [routing: plans]
            Manual processing
  `
}
