package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/schema"
)

// Func — реализация фильтра.
//
// value — выход предыдущего фильтра (или исходный вход шага).
// args — разрешённые и проверенные аргументы фильтра.
// acc доступен только на чтение.
type Func func(ctx context.Context, value any, args map[string]any, acc engine.Accumulator) (any, error)

// Definition — объявление фильтра в реестре.
type Definition struct {
	// Name — имя фильтра, по нему фильтр ссылается в документах.
	Name string `json:"name"`

	// Description — описание для CLI.
	Description string `json:"description,omitempty"`

	// Params — схема аргументов фильтра.
	Params schema.Schema `json:"params"`

	// Func — реализация.
	Func Func `json:"-"`
}

// Filter — фильтр, привязанный к конкретным аргументам.
//
// Неизменяем после создания и безопасен для конкурентного Apply.
type Filter struct {
	def  Definition
	args engine.Args
}

// New создаёт фильтр из реестра.
//
// Литеральные аргументы проверяются сразу, ссылки считаются
// присутствующими и проверяются при каждом Apply.
func New(reg *Registry, name string, args engine.Args) (*Filter, error) {
	def, err := reg.Get(name)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = engine.Args{}
	}

	if _, err := def.Params.Check(args.Literals(), args.References()...); err != nil {
		return nil, fmt.Errorf("%w: filter %s: %w", ErrInvalidArgs, name, err)
	}

	return &Filter{def: def, args: args.Clone()}, nil
}

// Name возвращает имя фильтра.
func (f *Filter) Name() string {
	return f.def.Name
}

// Args возвращает копию аргументов фильтра.
func (f *Filter) Args() engine.Args {
	return f.args.Clone()
}

// Apply применяет фильтр к значению.
func (f *Filter) Apply(ctx context.Context, value any, acc engine.Accumulator) (any, error) {
	resolved, err := engine.Resolve(f.args, acc, "in filter "+f.def.Name)
	if err != nil {
		return nil, err
	}

	checked, err := f.def.Params.Check(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %s: %w", ErrInvalidArgs, f.def.Name, err)
	}

	out, err := f.def.Func(ctx, value, checked, acc)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f.def.Name, err)
	}

	return out, nil
}

// String возвращает представление вида "add(amount=1)".
func (f *Filter) String() string {
	parts := make([]string, 0, len(f.args))
	for _, name := range f.args.Names() {
		parts = append(parts, name+"="+f.args[name].String())
	}
	return f.def.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Apply прогоняет значение через цепочку фильтров по порядку.
// Каждый фильтр получает выход предыдущего. Первая ошибка прерывает цепочку.
func Apply(ctx context.Context, filters []*Filter, value any, acc engine.Accumulator) (any, error) {
	for i, f := range filters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := f.Apply(ctx, value, acc)
		if err != nil {
			return nil, fmt.Errorf("filter #%d: %w", i, err)
		}
		value = out
	}
	return value, nil
}
