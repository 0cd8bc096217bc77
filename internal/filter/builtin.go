package filter

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/schema"
)

// Имена стандартных фильтров.
const (
	NameAdd      = "add"
	NameMultiply = "multiply"
	NameLength   = "length"
	NameLower    = "lower"
	NameUpper    = "upper"
	NameTrim     = "trim"
	NameSelect   = "select"
	NameExpr     = "expr"
	NameTemplate = "template"
)

func builtins() []Definition {
	return []Definition{
		{
			Name:        NameAdd,
			Description: "adds amount to a numeric value",
			Params:      schema.Schema{{Name: "amount", Type: schema.TypeNumber, Required: true}},
			Func: arithmetic(func(a, b float64) float64 {
				return a + b
			}, "amount"),
		},
		{
			Name:        NameMultiply,
			Description: "multiplies a numeric value by factor",
			Params:      schema.Schema{{Name: "factor", Type: schema.TypeNumber, Required: true}},
			Func: arithmetic(func(a, b float64) float64 {
				return a * b
			}, "factor"),
		},
		{
			Name:        NameLength,
			Description: "length of a string, array or object",
			Func:        length,
		},
		{
			Name:        NameLower,
			Description: "lower-cases a string",
			Func:        stringFunc(strings.ToLower),
		},
		{
			Name:        NameUpper,
			Description: "upper-cases a string",
			Func:        stringFunc(strings.ToUpper),
		},
		{
			Name:        NameTrim,
			Description: "trims surrounding whitespace",
			Func:        stringFunc(strings.TrimSpace),
		},
		{
			Name:        NameSelect,
			Description: "picks a value by dot path (body.items.0.id)",
			Params:      schema.Schema{{Name: "path", Type: schema.TypeString, Required: true, Rules: "required"}},
			Func:        selectPath,
		},
		{
			Name:        NameExpr,
			Description: "evaluates an expr-lang expression over value, args and step(name)",
			Params: schema.Schema{
				{Name: "expression", Type: schema.TypeString, Required: true, Rules: "required"},
				{Name: "vars", Type: schema.TypeObject, Description: "extra variables available as args"},
			},
			Func: evalExpr,
		},
		{
			Name:        NameTemplate,
			Description: "renders a Go template with .Value, .Args and step(name)",
			Params: schema.Schema{
				{Name: "template", Type: schema.TypeString, Required: true},
				{Name: "vars", Type: schema.TypeObject, Description: "extra data available as .Args"},
			},
			Func: renderTemplate,
		},
	}
}

// number приводит значение к float64 через схему.
func number(value any) (float64, error) {
	v, err := schema.Param{Name: "value", Type: schema.TypeNumber, Required: true}.Validate(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return v.(float64), nil
}

func isInteger(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// arithmetic строит числовой фильтр.
// Целый вход с целым операндом даёт целый результат.
func arithmetic(op func(a, b float64) float64, operand string) Func {
	return func(_ context.Context, value any, args map[string]any, _ engine.Accumulator) (any, error) {
		a, err := number(value)
		if err != nil {
			return nil, err
		}
		b := args[operand].(float64)

		result := op(a, b)
		if isInteger(value) && b == math.Trunc(b) && result == math.Trunc(result) {
			return int(result), nil
		}
		return result, nil
	}
}

func length(_ context.Context, value any, _ map[string]any, _ engine.Accumulator) (any, error) {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	default:
		return nil, fmt.Errorf("%w: length of %T", ErrInvalidValue, value)
	}
}

func stringFunc(fn func(string) string) Func {
	return func(_ context.Context, value any, _ map[string]any, _ engine.Accumulator) (any, error) {
		v, err := schema.Param{Name: "value", Type: schema.TypeString, Required: true}.Validate(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return fn(v.(string)), nil
	}
}

func selectPath(_ context.Context, value any, args map[string]any, _ engine.Accumulator) (any, error) {
	out, err := engine.Lookup(value, args["path"].(string))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return out, nil
}

func evalExpr(_ context.Context, value any, args map[string]any, acc engine.Accumulator) (any, error) {
	env := map[string]any{
		"value": value,
		"args":  vars(args),
	}
	return engine.Eval(args["expression"].(string), env, acc)
}

func renderTemplate(_ context.Context, value any, args map[string]any, acc engine.Accumulator) (any, error) {
	data := map[string]any{
		"Value": value,
		"Args":  vars(args),
	}
	return engine.Render(args["template"].(string), data, acc)
}

func vars(args map[string]any) map[string]any {
	if v, ok := args["vars"].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}
