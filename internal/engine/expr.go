package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Eval вычисляет выражение expr-lang.
//
// env доступен как переменные, аккумулятор — через функцию step:
//
//	value * 2
//	len(value) > args.min
//	step("fetch").body.total + value
//
// Неизвестные переменные дают nil, а не ошибку компиляции.
func Eval(expression string, env map[string]any, acc Accumulator) (any, error) {
	if env == nil {
		env = make(map[string]any)
	}

	stepFn := expr.Function(
		"step",
		func(params ...any) (any, error) {
			name, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("step() expects string name, got %T", params[0])
			}
			return Dereference(Reference{Step: name}, acc)
		},
		new(func(string) any),
	)

	// expr.Env должен идти до AllowUndefinedVariables
	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		stepFn,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExprCompile, err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExprRun, err)
	}
	return out, nil
}
