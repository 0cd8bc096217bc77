package engine

import (
	"fmt"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// Resolve превращает аргументы в конкретные значения.
//
// Литералы проходят без изменений, ссылки читаются из аккумулятора.
// Результат либо полный, либо ошибка: частичного результата нет.
// label попадает в текст ошибки, например "in step compare (5d0c...)".
func Resolve(args Args, acc Accumulator, label string) (map[string]any, error) {
	out := make(map[string]any, len(args))

	for _, name := range args.Names() {
		switch v := args[name].(type) {
		case Literal:
			out[name] = v.Value

		case Reference:
			value, err := Dereference(v, acc)
			if err != nil {
				return nil, &ResolutionError{Arg: name, Label: label, Ref: v, Err: err}
			}
			out[name] = value

		case nil:
			out[name] = nil

		default:
			return nil, &ResolutionError{
				Arg:   name,
				Label: label,
				Err:   fmt.Errorf("unsupported value %T", v),
			}
		}
	}

	return out, nil
}

// Dereference читает значение одной ссылки.
func Dereference(ref Reference, acc Accumulator) (any, error) {
	if acc == nil {
		return nil, fmt.Errorf("%w: %q (no accumulator)", ErrStepNotFound, ref.Step)
	}

	output, ok := acc.Output(ref.Step)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStepNotFound, ref.Step)
	}

	if ref.Path == "" {
		return output, nil
	}

	return Lookup(output, ref.Path)
}

// Lookup достаёт значение по пути через точку.
// Числовые сегменты индексируют массивы: "items.0.id".
func Lookup(value any, path string) (any, error) {
	path = strings.Trim(path, ".")
	if path == "" {
		return value, nil
	}

	container := gabs.Wrap(value)
	if !container.ExistsP(path) {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}

	return container.Path(path).Data(), nil
}
