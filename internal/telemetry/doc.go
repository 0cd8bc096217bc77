// Package telemetry обеспечивает наблюдаемость Flagship.
//
// Включает:
//   - logging.go — structured logging через slog, логгер в context
//   - metrics.go — Prometheus метрики вызовов и событий шагов
//
// Metrics.HandleEvent подписывается на events.Bus, поэтому шаг
// ничего не знает о Prometheus. Метрики отдаются на /metrics воркера.
package telemetry
