// Package mq связывает воркер шагов с RabbitMQ.
//
// Типы сообщений:
//   - step.invoke    — запрос на вызов сохранённого шага
//   - step.completed — результат вызова
//   - step.event     — событие шага (validation_succeeded, failed)
//
// Exchanges:
//   - flagship.steps  — вызовы и результаты
//   - flagship.events — события шагов (topic, routing key = тип события)
//   - flagship.dlq    — dead letter queue
package mq
