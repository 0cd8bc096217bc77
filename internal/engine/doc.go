// Package engine содержит то, что нужно шагу для чтения чужих выходов.
//
// Включает:
//   - context.go  — аккумулятор (Accumulator, Context, Outputs)
//   - value.go    — значения аргументов: Literal | Reference
//   - resolve.go  — разрешение ссылок и поиск по пути (gabs)
//   - template.go — рендеринг Go templates ({{ .Value }}, {{ step "fetch" }})
//   - expr.go     — вычисление выражений expr-lang
//
// Engine ничего не пишет в аккумулятор: его жизненным циклом
// управляет владелец workflow.
package engine
