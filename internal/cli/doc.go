// Package cli реализует инструмент командной строки Flagship.
//
// # Обзор
//
// CLI работает с шагами локально: выводит каталоги, переводит объявления
// шагов между формами, проверяет и вызывает их. Команды store и enqueue
// ходят в PostgreSQL и RabbitMQ по той же конфигурации, что и воркер.
//
// # Ключевые компоненты
//
// ## Catalog
//
// Каталоги actions и фильтров. DefaultCatalog() содержит встроенные.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: flagship actions --json | jq .
//
// ## Commands
//
//   - actions, filters — каталоги
//   - convert <file> --to json|xml|yaml — перевод между формами
//   - validate <file> — проверка объявления
//   - invoke <file> --input VALUE --context FILE — локальный вызов
//   - store save|list|delete — шаги в PostgreSQL (нужна конфигурация)
//   - enqueue <step-id> --run ID --input VALUE — вызов через воркеры
//
// Форма файла определяется по расширению (.json, .xml, .yaml, .yml).
// Каждая команда создаётся фабричной функцией (NewConvertCmd и т.д.),
// принимающей catalogFn и outputFn — замыкания, которые вызываются
// после парсинга PersistentFlags.
package cli
