// Package domain содержит общие типы Flagship без поведения:
// транспортные документы шагов и статусы вызовов.
//
// Пакет не зависит от остальных пакетов internal/, поэтому его
// используют и repo, и mq, и step.
package domain
