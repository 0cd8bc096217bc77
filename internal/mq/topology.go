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
	ExchangeSteps  Exchange = "flagship.steps"
	ExchangeEvents Exchange = "flagship.events"
	ExchangeDLQ    Exchange = "flagship.dlq"
)

// Queues — имена очередей.
const (
	QueueStepsInvoke    Queue = "steps.invoke"
	QueueStepsCompleted Queue = "steps.completed"
	QueueEventsAudit    Queue = "events.audit"
	QueueDLQSteps       Queue = "dlq.steps"
)

// Routing keys.
const (
	RoutingKeyInvoke    RoutingKey = "invoke"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQSteps  RoutingKey = "steps"

	// RoutingKeyAllStepEvents — шаблон topic для всех событий шагов.
	RoutingKeyAllStepEvents RoutingKey = "step.#"
)

// SetupTopology объявляет exchanges, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeSteps, amqp.ExchangeDirect},
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

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

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSteps),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// steps.invoke — с DLQ: битые сообщения не крутятся в очереди
		{QueueStepsInvoke, dlqArgs},
		{QueueStepsCompleted, nil},
		{QueueEventsAudit, nil},
		{QueueDLQSteps, nil},
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

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueStepsInvoke, RoutingKeyInvoke, ExchangeSteps},
		{QueueStepsCompleted, RoutingKeyCompleted, ExchangeSteps},
		{QueueEventsAudit, RoutingKeyAllStepEvents, ExchangeEvents},
		{QueueDLQSteps, RoutingKeyDLQSteps, ExchangeDLQ},
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
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Flagship RabbitMQ Topology:

    flagship.steps (direct)
    ├── steps.invoke [routing: invoke]
    │       Consumer: Worker
    │       DLQ: dlq.steps
    └── steps.completed [routing: completed]
            Consumer: host

    flagship.events (topic)
    └── events.audit [routing: step.#]
            step.validation_succeeded, step.failed

    flagship.dlq (direct)
    └── dlq.steps [routing: steps]
            Manual processing
  `
}
