package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/mq"
	"github.com/shaiso/Flagship/internal/repo"
	"github.com/shaiso/Flagship/internal/step"
	"github.com/shaiso/Flagship/internal/telemetry"
)

// handleInvoke обрабатывает сообщение из очереди steps.invoke.
func (w *Worker) handleInvoke(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.InvokePayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", mq.ErrReject, ErrInvalidPayload, err)
	}
	if payload.StepID == "" {
		return fmt.Errorf("%w: %w: empty step_id", mq.ErrReject, ErrInvalidPayload)
	}

	w.logger.Debug("received step.invoke",
		"run_id", payload.RunID,
		"step_id", payload.StepID,
		"step_ref", payload.Ref(),
	)

	return w.Process(ctx, payload)
}

// Process выполняет один запрос на вызов.
//
// Неудача самого шага — это результат, а не ошибка: он записывается
// и публикуется как FAILED. Ошибка возвращается только при сбое
// инфраструктуры (БД, брокер), тогда сообщение вернётся в очередь.
func (w *Worker) Process(ctx context.Context, payload mq.InvokePayload) error {
	ref := payload.Ref()
	logger := telemetry.WithRunID(w.logger, payload.RunID.String())
	logger = telemetry.WithStepID(logger, payload.StepID)

	completed := mq.StepCompletedPayload{
		RunID:   payload.RunID,
		StepID:  payload.StepID,
		StepRef: ref,
	}

	// 1. Объявление шага
	doc, err := w.steps.GetByID(ctx, payload.StepID)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Warn("step not found")
		return w.finish(ctx, failed(completed, ReasonStepNotFound, fmt.Errorf("%w: %s", ErrStepNotFound, payload.StepID)))
	}
	if err != nil {
		return fmt.Errorf("get step: %w", err)
	}

	s, err := w.builder.FromDocument(*doc)
	if err != nil {
		logger.Warn("invalid step declaration", "error", err)
		return w.finish(ctx, failed(completed, ReasonInvalidDeclaration, err))
	}

	// 2. Аккумулятор run; сам шаг помечаем как PENDING
	acc, err := w.outputs.Load(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("load outputs: %w", err)
	}
	if err := w.outputs.Record(ctx, payload.RunID, ref, nil, domain.InvocationPending); err != nil {
		return fmt.Errorf("record pending: %w", err)
	}

	// 3. Вызов
	invokeCtx, cancel := context.WithTimeout(ctx, w.invokeTimeout)
	defer cancel()
	invokeCtx = telemetry.WithLogger(invokeCtx, logger)

	start := time.Now()
	res := s.Invoke(invokeCtx, payload.Input, acc)
	duration := time.Since(start)

	// Выход, который нельзя сохранить, — неудача шага, а не сбой БД
	var failure error
	kind := ""
	if res.Failed() {
		failure, kind = res.Failure.Err, string(res.Failure.Kind)
	} else if err := checkSerializable(res.Output); err != nil {
		failure, kind = err, string(step.KindExecution)
	}

	if w.metrics != nil {
		w.metrics.ObserveInvocation(s.Action(), failure != nil, duration)
	}

	if failure != nil {
		logger.Warn("step failed",
			"reason", kind,
			"duration", duration,
			"error", failure,
		)
		return w.finish(ctx, failed(completed, kind, failure))
	}

	logger.Info("step succeeded", "action", s.Action(), "duration", duration)

	completed.Status = domain.InvocationSucceeded
	completed.Output = res.Output
	return w.finish(ctx, completed)
}

// finish записывает выход в аккумулятор run и публикует step.completed.
func (w *Worker) finish(ctx context.Context, completed mq.StepCompletedPayload) error {
	if err := w.outputs.Record(ctx, completed.RunID, completed.StepRef, completed.Output, completed.Status); err != nil {
		return fmt.Errorf("record output: %w", err)
	}

	if w.publisher == nil {
		w.logger.Warn("publisher not available, skipping step.completed publish",
			"step_id", completed.StepID,
		)
		return nil
	}

	if err := w.publisher.PublishStepCompleted(ctx, completed); err != nil {
		// Выход уже записан, хост увидит его при следующем Load
		w.logger.Warn("failed to publish step.completed",
			"step_id", completed.StepID,
			"error", err,
		)
	}
	return nil
}

// checkSerializable проверяет, что выход можно записать в JSONB и в сообщение.
func checkSerializable(output any) error {
	if _, err := json.Marshal(output); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputNotSerializable, err)
	}
	return nil
}

// failed помечает результат как FAILED с причиной.
func failed(p mq.StepCompletedPayload, reason string, err error) mq.StepCompletedPayload {
	p.Status = domain.InvocationFailed
	p.Reason = reason
	if err != nil {
		p.Error = err.Error()
	}
	return p
}
