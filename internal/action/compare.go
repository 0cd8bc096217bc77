package action

import (
	"context"
	"fmt"
	"regexp"

	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/schema"
)

// Имена actions проверки.
const (
	NameCompare    = "compare"
	NameRegexMatch = "regex_match"
	NameExpr       = "expr"
)

// NewCompare создаёт action сравнения чисел: value <operator> operand.
func NewCompare() Action {
	return Action{
		Name:        NameCompare,
		Description: "compares the numeric input with operand",
		Input:       schema.Param{Name: "value", Type: schema.TypeNumber, Required: true},
		Params: schema.Schema{
			{Name: "operator", Type: schema.TypeString, Required: true, Rules: "oneof=> >= < <= == !="},
			{Name: "operand", Type: schema.TypeNumber, Required: true},
		},
		Func: doCompare,
	}
}

func doCompare(_ context.Context, args map[string]any) (any, error) {
	value, _ := args["value"].(float64)
	operand, _ := args["operand"].(float64)

	switch op, _ := args["operator"].(string); op {
	case ">":
		return value > operand, nil
	case ">=":
		return value >= operand, nil
	case "<":
		return value < operand, nil
	case "<=":
		return value <= operand, nil
	case "==":
		return value == operand, nil
	case "!=":
		return value != operand, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

// NewRegexMatch создаёт action проверки строки регулярным выражением.
func NewRegexMatch() Action {
	return Action{
		Name:        NameRegexMatch,
		Description: "reports whether the string input matches regex",
		Input:       schema.Param{Name: "value", Type: schema.TypeString, Required: true},
		Params: schema.Schema{
			{Name: "regex", Type: schema.TypeString, Required: true, Rules: "required"},
		},
		Func: doRegexMatch,
	}
}

func doRegexMatch(_ context.Context, args map[string]any) (any, error) {
	pattern, _ := args["regex"].(string)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile regex: %w", err)
	}

	value, _ := args["value"].(string)
	return re.MatchString(value), nil
}

// NewExpr создаёт action, вычисляющий выражение expr-lang над входом.
//
// В выражении доступны value и args (содержимое vars).
func NewExpr() Action {
	return Action{
		Name:        NameExpr,
		Description: "evaluates an expr-lang expression over the input",
		Input:       schema.Param{Name: "value", Type: schema.TypeAny},
		Params: schema.Schema{
			{Name: "expression", Type: schema.TypeString, Required: true, Rules: "required"},
			{Name: "vars", Type: schema.TypeObject},
		},
		Func: doExpr,
	}
}

func doExpr(_ context.Context, args map[string]any) (any, error) {
	vars, _ := args["vars"].(map[string]any)
	if vars == nil {
		vars = map[string]any{}
	}

	env := map[string]any{
		"value": args["value"],
		"args":  vars,
	}

	expression, _ := args["expression"].(string)
	return engine.Eval(expression, env, nil)
}
