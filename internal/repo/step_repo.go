package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flagship/internal/domain"
)

// StepRepo — репозиторий объявлений шагов.
//
// Шаг хранится в объектной форме (domain.StepDoc) в JSONB.
// Репозиторий не проверяет документ по каталогу actions:
// это делает step.Builder при загрузке.
type StepRepo struct {
	pool *pgxpool.Pool
}

// NewStepRepo создаёт новый StepRepo.
func NewStepRepo(pool *pgxpool.Pool) *StepRepo {
	return &StepRepo{pool: pool}
}

// Save создаёт или обновляет шаг по ID.
func (r *StepRepo) Save(ctx context.Context, doc domain.StepDoc) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: step without id", ErrInvalidDocument)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal step: %w", err)
	}

	query := `
		INSERT INTO steps (id, action, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET action = EXCLUDED.action, document = EXCLUDED.document, updated_at = now()
	`
	if _, err := r.pool.Exec(ctx, query, doc.ID, doc.Action, body); err != nil {
		return fmt.Errorf("save step: %w", err)
	}
	return nil
}

// GetByID возвращает документ шага по ID.
func (r *StepRepo) GetByID(ctx context.Context, id string) (*domain.StepDoc, error) {
	query := `SELECT document FROM steps WHERE id = $1`

	var body []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get step by id: %w", err)
	}

	var doc domain.StepDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal step %s: %w", id, err)
	}
	return &doc, nil
}

// List возвращает все шаги, новые первыми.
func (r *StepRepo) List(ctx context.Context) ([]domain.StepDoc, error) {
	query := `SELECT document FROM steps ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var docs []domain.StepDoc
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		var doc domain.StepDoc
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal step: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete удаляет шаг.
func (r *StepRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM steps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete step: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
