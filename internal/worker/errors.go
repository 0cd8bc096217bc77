package worker

import "errors"

// Ошибки воркера.
var (
	// ErrInvalidPayload — сообщение step.invoke не разбирается.
	ErrInvalidPayload = errors.New("invalid invoke payload")

	// ErrStepNotFound — шага нет в репозитории.
	ErrStepNotFound = errors.New("step not found")

	// ErrOutputNotSerializable — выход action не кодируется в JSON (например, +Inf).
	ErrOutputNotSerializable = errors.New("output not serializable")
)

// Причины FAILED, которые воркер ставит сам, до вызова шага.
// Остальные причины приходят из step.Kind.
const (
	ReasonStepNotFound       = "step_not_found"
	ReasonInvalidDeclaration = "invalid_declaration"
)
