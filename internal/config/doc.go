// Package config собирает конфигурацию сервисов Flagship.
//
// Значения по умолчанию задаются тегами creasty/defaults, затем
// перекрываются YAML файлом (если указан) и переменными окружения:
// LOG_LEVEL, LOG_FORMAT, DB_URL, RABBITMQ_URL, WORKER_PORT,
// WORKER_PREFETCH, INVOKE_TIMEOUT. Итог проверяется validator.
package config
