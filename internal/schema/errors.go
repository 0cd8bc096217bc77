package schema

import (
	"errors"
	"fmt"
)

// Ошибки валидации параметров.
var (
	// ErrUnknownParam — передан параметр, которого нет в схеме.
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrMissingParam — не передан обязательный параметр.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrTypeMismatch — значение не приводится к типу параметра.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrRuleViolation — значение не прошло правила validator.
	ErrRuleViolation = errors.New("rule violation")

	// ErrInvalidSchema — некорректное объявление параметра.
	ErrInvalidSchema = errors.New("invalid schema")
)

// FieldError — ошибка проверки конкретного параметра.
type FieldError struct {
	Field  string // имя параметра
	Value  any    // значение, которое пытались проверить
	Detail string // подробности (тип, правило)
	Err    error  // базовая ошибка (одна из Err* выше)
}

// Error реализует интерфейс error.
func (e *FieldError) Error() string {
	msg := fmt.Sprintf("parameter %q: %v", e.Field, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value %v)", e.Value)
	}
	return msg
}

// Unwrap возвращает базовую ошибку.
func (e *FieldError) Unwrap() error {
	return e.Err
}

func newFieldError(field string, value any, err error, detail string) *FieldError {
	return &FieldError{
		Field:  field,
		Value:  value,
		Detail: detail,
		Err:    err,
	}
}
