package action

import "errors"

// Ошибки каталога actions.
var (
	// ErrUnknownAction — action не найден в реестре.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidAction — некорректное объявление action при регистрации.
	ErrInvalidAction = errors.New("invalid action definition")

	// ErrCancelled — выполнение action отменено через context.
	ErrCancelled = errors.New("action cancelled")
)
