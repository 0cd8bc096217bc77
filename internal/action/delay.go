package action

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Flagship/internal/schema"
)

// NameDelay — имя action задержки.
const NameDelay = "delay"

// NewDelay создаёт action задержки.
//
// Приостанавливает выполнение на duration_ms и возвращает вход без изменений.
// Поддерживает graceful shutdown через context cancellation.
func NewDelay() Action {
	return Action{
		Name:        NameDelay,
		Description: "waits duration_ms and passes the input through",
		Input:       schema.Param{Name: "value", Type: schema.TypeAny},
		Params: schema.Schema{
			{Name: "duration_ms", Type: schema.TypeInteger, Required: true, Rules: "gte=0"},
		},
		Func: doDelay,
	}
}

func doDelay(ctx context.Context, args map[string]any) (any, error) {
	ms, _ := args["duration_ms"].(int)
	duration := time.Duration(ms) * time.Millisecond

	// Создаём таймер
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		// Контекст отменён — graceful shutdown
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-timer.C:
		return args["value"], nil
	}
}
