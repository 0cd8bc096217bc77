package step

import (
	"errors"
	"fmt"
)

// Ошибки создания шага. Шаг при них не создаётся.
var (
	// ErrMalformedDeclaration — объявление шага нарушает структуру (нет action, дубли аргументов и т.п.).
	ErrMalformedDeclaration = errors.New("malformed step declaration")

	// ErrUnknownAction — action нет в каталоге.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidParameters — аргументы не соответствуют схеме action.
	ErrInvalidParameters = errors.New("invalid step parameters")
)

// Ошибки вызова шага. Invoke их не возвращает, а кладёт в Result.Failure.
var (
	// ErrInvalidInput — вход после фильтров не прошёл схему primary input.
	ErrInvalidInput = errors.New("invalid step input")

	// ErrResolutionFailed — ссылку на выход другого шага не удалось разрешить.
	ErrResolutionFailed = errors.New("step argument resolution failed")

	// ErrExecution — любая другая ошибка: фильтры, повторная проверка, action, паника.
	ErrExecution = errors.New("step execution failed")
)

// Kind — класс неудачи вызова.
type Kind string

// Классы неудачи. Значения используются как reason в событиях и метриках.
const (
	KindInvalidInput     Kind = "invalid_input"
	KindResolutionFailed Kind = "resolution_failed"
	KindExecution        Kind = "execution_error"
)

// Sentinel возвращает sentinel-ошибку класса.
func (k Kind) Sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindResolutionFailed:
		return ErrResolutionFailed
	default:
		return ErrExecution
	}
}

// Failure — причина неудачного вызова.
//
// errors.Is работает и с sentinel класса, и с исходной ошибкой:
//
//	errors.Is(f, step.ErrInvalidInput)
//	errors.Is(f, schema.ErrTypeMismatch)
type Failure struct {
	Kind Kind
	Err  error
}

// Error реализует интерфейс error.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind.Sentinel(), f.Err)
}

// Unwrap возвращает sentinel класса и исходную ошибку.
func (f *Failure) Unwrap() []error {
	return []error{f.Kind.Sentinel(), f.Err}
}
