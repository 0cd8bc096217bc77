package action

import (
	"context"

	"github.com/shaiso/Flagship/internal/schema"
)

// Func — реализация action.
//
// args — проверенные аргументы, в которые уже добавлен primary input
// под именем Action.Input.Name. Action должен проверять ctx.Done()
// на долгих операциях.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Action — запись каталога: реализация и её контракт.
type Action struct {
	// Name — имя action, на него ссылаются шаги.
	Name string `json:"name"`

	// Description — описание для CLI.
	Description string `json:"description,omitempty"`

	// Params — схема аргументов шага.
	Params schema.Schema `json:"params"`

	// Input — схема primary input: значения, прошедшего цепочку фильтров.
	// Input.Name — ключ, под которым вход попадает в args.
	Input schema.Param `json:"input"`

	// Func — реализация.
	Func Func `json:"-"`
}
