package step

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/events"
	"github.com/shaiso/Flagship/internal/filter"
	"github.com/shaiso/Flagship/internal/telemetry"
)

// Invoke выполняет шаг над входным значением.
//
// Порядок:
//  1. цепочка фильтров над input;
//  2. проверка результата схемой primary input (KindInvalidInput);
//  3. разрешение аргументов по аккумулятору (KindResolutionFailed);
//  4. повторная проверка аргументов схемой и слияние с входом под именем Input.Name;
//  5. событие KindValidationSucceeded, до вызова action;
//  6. вызов action.
//
// Любая другая ошибка или паника даёт KindExecution. Invoke никогда не
// паникует и не возвращает error: неудача приходит в Result вместе
// с событием KindFailed. Аккумулятор только читается.
func (s *Step) Invoke(ctx context.Context, input any, acc engine.Accumulator) (res Result) {
	logger := s.logger
	if logger == nil {
		logger = telemetry.FromContext(ctx)
	}
	logger = telemetry.WithAction(telemetry.WithStepID(logger, s.id), s.action.Name)

	var filtered any
	stage := "filters"

	defer func() {
		if r := recover(); r != nil {
			res = s.fail(ctx, logger, KindExecution, fmt.Errorf("panic in %s: %v", stage, r), input, filtered)
		}
	}()

	// 1. Фильтры
	filtered, err := filter.Apply(ctx, s.filters, input, acc)
	if err != nil {
		return s.fail(ctx, logger, KindExecution, fmt.Errorf("apply filters: %w", err), input, nil)
	}

	// 2. Primary input
	stage = "input validation"
	validated, err := s.action.Input.Validate(filtered)
	if err != nil {
		return s.fail(ctx, logger, KindInvalidInput, err, input, filtered)
	}

	// 3. Ссылки на выходы других шагов
	stage = "argument resolution"
	resolved, err := engine.Resolve(s.args, acc, s.Label())
	if err != nil {
		return s.fail(ctx, logger, KindResolutionFailed, err, input, filtered)
	}

	// 4. Значения ссылок могли измениться с момента создания
	merged, err := s.action.Params.Check(resolved)
	if err != nil {
		return s.fail(ctx, logger, KindExecution, fmt.Errorf("re-validate arguments: %w", err), input, filtered)
	}
	merged[s.action.Input.Name] = validated

	// 5. До вызова action
	s.emit(ctx, logger, events.KindValidationSucceeded, "", nil)
	logger.Debug("step arguments are valid", "args", merged)

	// 6. Вызов
	stage = "action " + s.action.Name
	out, err := s.action.Func(ctx, merged)
	if err != nil {
		return s.fail(ctx, logger, KindExecution, err, input, filtered)
	}

	return Result{Output: out}
}

// fail логирует неудачу, отправляет KindFailed и собирает Result.
func (s *Step) fail(ctx context.Context, logger *slog.Logger, kind Kind, err error, input, filtered any) Result {
	f := &Failure{Kind: kind, Err: err}

	logger.Error("step invocation failed",
		"reason", kind,
		"input", input,
		"filtered", filtered,
		"error", err,
	)

	s.emit(ctx, logger, events.KindFailed, string(kind), f)
	return Result{Failure: f}
}

// emit отправляет событие. Паника получателя не должна ломать вызов.
func (s *Step) emit(ctx context.Context, logger *slog.Logger, kind events.Kind, reason string, err error) {
	e := events.Event{
		Kind:      kind,
		StepID:    s.id,
		Action:    s.action.Name,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	if err != nil {
		e.Error = err.Error()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("event emitter panicked", "kind", kind, "panic", r)
		}
	}()
	s.emitter.Emit(ctx, e)
}
