package repository

import "errors"

var (
	// ErrStaleState условное обновление не нашло строку в ожидаемом статусе
	ErrStaleState = errors.New("record state changed concurrently")
	// ErrDuplicate запись с таким уникальным ключом уже есть
	ErrDuplicate = errors.New("duplicate record")
	// ErrUserNotFound пользователь отсутствует в Identity Store
	ErrUserNotFound = errors.New("user not found")
)
