package service

import (
	"errors"
	"fmt"
)

// ErrorKind класс ошибки движка. По нему API выбирает код ответа.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindPermission        ErrorKind = "permission_denied"
	KindValidation        ErrorKind = "validation"
	KindInvalidOperation  ErrorKind = "invalid_operation"
	KindConflict          ErrorKind = "conflict"
	KindDependencyTimeout ErrorKind = "dependency_timeout"
)

// Error типизированная ошибка движка
type Error struct {
	Kind    ErrorKind
	Field   string // для KindValidation: какое поле исправить
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по Kind, чтобы работало errors.Is(err, ErrNotFound)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Field == "" && t.Err == nil
}

// Сентинелы для errors.Is
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrPermission        = &Error{Kind: KindPermission}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInvalidOperation  = &Error{Kind: KindInvalidOperation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrDependencyTimeout = &Error{Kind: KindDependencyTimeout}
)

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func permissionDenied(format string, args ...any) error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

func validationFailed(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func invalidOperation(format string, args ...any) error {
	return &Error{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func dependencyTimeout(dependency string, err error) error {
	return &Error{Kind: KindDependencyTimeout, Message: dependency + " did not respond in time", Err: err}
}

// KindOf возвращает Kind типизированной ошибки, "" для остальных
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
