// Package repo хранит шаги и выходы run в PostgreSQL (pgx).
//
//   - steps        — объявления шагов в объектной форме
//   - step_outputs — выходы шагов по run, из них собирается аккумулятор
package repo
