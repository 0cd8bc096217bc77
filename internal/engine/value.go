package engine

import (
	"fmt"
	"sort"
)

// Value — значение аргумента: Literal или Reference.
//
// Ссылка задаётся типом, а не содержимым строки, поэтому литерал,
// похожий на ссылку, остаётся литералом.
type Value interface {
	isValue()
	String() string
}

// Literal — значение, известное на момент объявления.
type Literal struct {
	Value any
}

func (Literal) isValue() {}

func (l Literal) String() string {
	return fmt.Sprintf("%#v", l.Value)
}

// Reference — ссылка на выход другого шага.
type Reference struct {
	// Step — имя или ID шага в аккумуляторе.
	Step string

	// Path — необязательный путь внутри выхода ("body.items.0").
	Path string
}

func (Reference) isValue() {}

func (r Reference) String() string {
	if r.Path == "" {
		return "ref(" + r.Step + ")"
	}
	return "ref(" + r.Step + "." + r.Path + ")"
}

// Lit — короткий конструктор Literal.
func Lit(v any) Literal {
	return Literal{Value: v}
}

// Ref — короткий конструктор Reference.
func Ref(step, path string) Reference {
	return Reference{Step: step, Path: path}
}

// Args — аргументы шага: имя → значение.
type Args map[string]Value

// Names возвращает имена аргументов в отсортированном порядке.
func (a Args) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Literals возвращает только литеральные аргументы как обычный mapping.
func (a Args) Literals() map[string]any {
	out := make(map[string]any, len(a))
	for name, v := range a {
		if lit, ok := v.(Literal); ok {
			out[name] = lit.Value
		}
	}
	return out
}

// References возвращает имена аргументов-ссылок в отсортированном порядке.
func (a Args) References() []string {
	var names []string
	for _, name := range a.Names() {
		if _, ok := a[name].(Reference); ok {
			names = append(names, name)
		}
	}
	return names
}

// Clone возвращает поверхностную копию.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
