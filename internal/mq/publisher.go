package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Perftool/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypePlanSubmitted MessageType = "plan.submitted"
	MessageTypeStepCompleted MessageType = "step.completed"
	MessageTypeRunCompleted  MessageType = "run.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка в JSON. Хранится как есть,
	// чтобы числа плана не теряли тип при пересылке.
	Payload json.RawMessage `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// PlanSubmittedPayload — план, отправленный на выполнение.
type PlanSubmittedPayload struct {
	// Plan — JSON плана в исходном виде.
	Plan json.RawMessage `json:"plan"`

	// Persist — сохранять ли результаты в БД.
	Persist bool `json:"persist,omitempty"`
}

// StepCompletedPayload — результат одного выполнения шага.
type StepCompletedPayload struct {
	RunID      uuid.UUID      `json:"run_id"`
	Iteration  int            `json:"iteration"`
	Position   int            `json:"position"`
	Label      string         `json:"label"`
	CustomName string         `json:"custom_name"`
	Status     string         `json:"status"` // SUCCEEDED или FAILED
	Error      string         `json:"error,omitempty"`
	Measures   map[string]any `json:"measures,omitempty"`
}

// RunCompletedPayload — итог run.
type RunCompletedPayload struct {
	RunID    uuid.UUID            `json:"run_id"`
	PlanName string               `json:"plan_name"`
	Status   string               `json:"status"`
	Error    string               `json:"error,omitempty"`
	Summary  []domain.StepSummary `json:"summary,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, exchange, routingKey, msg)
}

// PublishPlanSubmitted отправляет план на выполнение.
// Потребитель: perftool-worker.
func (p *Publisher) PublishPlanSubmitted(ctx context.Context, payload PlanSubmittedPayload) error {
	return p.PublishJSON(ctx, ExchangePlans, RoutingKeySubmitted, MessageTypePlanSubmitted, payload)
}

// PublishStepCompleted публикует результат шага.
func (p *Publisher) PublishStepCompleted(ctx context.Context, payload StepCompletedPayload) error {
	return p.PublishJSON(ctx, ExchangeResults, RoutingKeyStepCompleted, MessageTypeStepCompleted, payload)
}

// PublishRunCompleted публикует итог run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, payload RunCompletedPayload) error {
	return p.PublishJSON(ctx, ExchangeResults, RoutingKeyRunCompleted, MessageTypeRunCompleted, payload)
}
