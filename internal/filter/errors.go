package filter

import "errors"

// Ошибки фильтров.
var (
	// ErrUnknownFilter — фильтр не найден в реестре.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrInvalidDefinition — некорректное объявление фильтра при регистрации.
	ErrInvalidDefinition = errors.New("invalid filter definition")

	// ErrInvalidArgs — аргументы фильтра не прошли проверку схемы.
	ErrInvalidArgs = errors.New("invalid filter arguments")

	// ErrInvalidValue — фильтр не может обработать входное значение.
	ErrInvalidValue = errors.New("invalid filter value")
)
