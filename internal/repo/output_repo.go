package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/engine"
)

// OutputRepo — выходы шагов в рамках run.
//
// Это хранилище аккумулятора на стороне хоста: воркер записывает
// результат вызова, следующий вызов того же run читает все выходы.
// Сам шаг в БД ничего не пишет.
type OutputRepo struct {
	pool *pgxpool.Pool
}

// NewOutputRepo создаёт новый OutputRepo.
func NewOutputRepo(pool *pgxpool.Pool) *OutputRepo {
	return &OutputRepo{pool: pool}
}

// Record сохраняет выход шага. Повторный вызов перезаписывает выход.
func (r *OutputRepo) Record(ctx context.Context, runID uuid.UUID, stepRef string, output any, status domain.InvocationStatus) error {
	body, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	query := `
		INSERT INTO step_outputs (run_id, step_ref, output, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, step_ref) DO UPDATE
		SET output = EXCLUDED.output, status = EXCLUDED.status, updated_at = now()
	`
	if _, err := r.pool.Exec(ctx, query, runID, stepRef, body, string(status)); err != nil {
		return fmt.Errorf("record output: %w", err)
	}
	return nil
}

// Load собирает аккумулятор run из сохранённых выходов.
// Для run без выходов возвращает пустой контекст.
func (r *OutputRepo) Load(ctx context.Context, runID uuid.UUID) (*engine.Context, error) {
	query := `SELECT step_ref, output, status FROM step_outputs WHERE run_id = $1`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("load outputs: %w", err)
	}
	defer rows.Close()

	acc := engine.NewContext(nil)
	for rows.Next() {
		var (
			stepRef string
			body    []byte
			status  string
		)
		if err := rows.Scan(&stepRef, &body, &status); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}

		output, err := decodeOutput(body)
		if err != nil {
			return nil, fmt.Errorf("output of %s: %w", stepRef, err)
		}
		acc.AddStepResult(stepRef, output, domain.ParseInvocationStatus(status))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return acc, nil
}

// decodeOutput разбирает JSONB выход. NULL и пустое тело дают nil.
func decodeOutput(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
