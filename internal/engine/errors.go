package engine

import (
	"errors"
	"fmt"
)

// Ошибки разрешения ссылок.
var (
	// ErrResolutionFailed — общая ошибка разрешения аргументов.
	ErrResolutionFailed = errors.New("argument resolution failed")

	// ErrStepNotFound — шага нет в аккумуляторе или он ещё не выдал выход.
	ErrStepNotFound = errors.New("referenced step has no output")

	// ErrPathNotFound — в выходе шага нет указанного пути.
	ErrPathNotFound = errors.New("path not found in step output")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// Ошибки выражений expr-lang.
var (
	// ErrExprCompile — выражение не компилируется.
	ErrExprCompile = errors.New("expression compile failed")

	// ErrExprRun — ошибка вычисления выражения.
	ErrExprRun = errors.New("expression evaluation failed")
)

// ResolutionError — ошибка разрешения с контекстом.
type ResolutionError struct {
	Arg   string    // имя аргумента
	Label string    // метка владельца, всегда содержит имя action
	Ref   Reference // ссылка, которую не удалось разрешить
	Err   error     // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve argument %q", e.Arg)
	if e.Label != "" {
		msg += " " + e.Label
	}
	if e.Ref.Step != "" {
		msg += " (" + e.Ref.String() + ")"
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is позволяет проверять errors.Is(err, ErrResolutionFailed).
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}
