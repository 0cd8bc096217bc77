// Package events описывает уведомления шага: StepValidationSucceeded и StepFailed.
//
// События fire-and-forget: шаг отправляет их через Emitter и не зависит
// от того, есть ли потребители. Bus раздаёт события подписчикам внутри
// процесса (метрики, логирование, публикация в RabbitMQ).
package events
