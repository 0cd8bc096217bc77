package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocument — документ нельзя сохранить (например, без ID).
	ErrInvalidDocument = errors.New("invalid document")
)
