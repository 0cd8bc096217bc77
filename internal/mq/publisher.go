package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/events"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStepInvoke    MessageType = "step.invoke"
	MessageTypeStepCompleted MessageType = "step.completed"
	MessageTypeStepEvent     MessageType = "step.event"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
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

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// InvokePayload — запрос на вызов сохранённого шага.
type InvokePayload struct {
	RunID uuid.UUID `json:"run_id"`

	// StepID — ID шага в репозитории.
	StepID string `json:"step_id"`

	// StepRef — имя, под которым выход попадёт в аккумулятор run.
	// Пустое значение означает StepID.
	StepRef string `json:"step_ref,omitempty"`

	// Input — входное значение шага.
	Input any `json:"input"`
}

// Ref возвращает имя выхода в аккумуляторе.
func (p InvokePayload) Ref() string {
	if p.StepRef != "" {
		return p.StepRef
	}
	return p.StepID
}

// StepCompletedPayload — результат вызова шага.
type StepCompletedPayload struct {
	RunID   uuid.UUID               `json:"run_id"`
	StepID  string                  `json:"step_id"`
	StepRef string                  `json:"step_ref"`
	Status  domain.InvocationStatus `json:"status"` // SUCCEEDED или FAILED
	Reason  string                  `json:"reason,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Output  any                     `json:"output,omitempty"`
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
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
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

// PublishInvoke ставит вызов шага в очередь.
// Потребитель: Worker.
func (p *Publisher) PublishInvoke(ctx context.Context, payload InvokePayload) error {
	return p.Publish(ctx, ExchangeSteps, RoutingKeyInvoke, NewMessage(MessageTypeStepInvoke, payload))
}

// PublishStepCompleted публикует результат вызова шага.
// Потребитель: хост, который ведёт run.
func (p *Publisher) PublishStepCompleted(ctx context.Context, payload StepCompletedPayload) error {
	return p.Publish(ctx, ExchangeSteps, RoutingKeyCompleted, NewMessage(MessageTypeStepCompleted, payload))
}

// PublishEvent публикует событие шага. Routing key — тип события.
func (p *Publisher) PublishEvent(ctx context.Context, e events.Event) error {
	return p.Publish(ctx, ExchangeEvents, RoutingKey(e.Kind), NewMessage(MessageTypeStepEvent, e))
}

// EventHandler возвращает подписчика events.Bus, пересылающего события в RabbitMQ.
// Ошибка публикации только логируется: вызов шага от неё не зависит.
func (p *Publisher) EventHandler() events.Handler {
	return func(ctx context.Context, e events.Event) {
		if err := p.PublishEvent(ctx, e); err != nil {
			p.logger.Warn("failed to publish step event",
				"kind", e.Kind,
				"step_id", e.StepID,
				"error", err,
			)
		}
	}
}
