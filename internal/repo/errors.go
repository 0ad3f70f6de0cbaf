package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — run не найден в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — run с таким ID уже сохранён.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — run уже завершён.
	ErrInvalidState = errors.New("invalid state")
)
