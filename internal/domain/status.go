package domain

// InvocationStatus — статус вызова шага в рамках run.
//
// Жизненный цикл:
//
//	PENDING → SUCCEEDED
//	        ↘ FAILED
type InvocationStatus string

const (
	// InvocationPending — вызов запрошен, но выход ещё не получен.
	InvocationPending InvocationStatus = "PENDING"

	// InvocationSucceeded — action вернул результат.
	InvocationSucceeded InvocationStatus = "SUCCEEDED"

	// InvocationFailed — вызов завершился failure sentinel.
	InvocationFailed InvocationStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s InvocationStatus) IsTerminal() bool {
	switch s {
	case InvocationSucceeded, InvocationFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление InvocationStatus.
func (s InvocationStatus) String() string {
	return string(s)
}

// ParseInvocationStatus парсит строку в InvocationStatus.
func ParseInvocationStatus(s string) InvocationStatus {
	switch s {
	case "SUCCEEDED":
		return InvocationSucceeded
	case "FAILED":
		return InvocationFailed
	default:
		return InvocationPending
	}
}
