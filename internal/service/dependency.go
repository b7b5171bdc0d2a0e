package service

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
)

const defaultDependencyTimeout = 3 * time.Second

// withDeadline вызывает внешнюю зависимость с ограничением по времени.
// Истёкший дедлайн превращается в DependencyTimeoutError.
func withDeadline[T any](ctx context.Context, timeout time.Duration, dependency string, call func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = defaultDependencyTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := call(callCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			var zero T
			return zero, dependencyTimeout(dependency, err)
		}
		return result, err
	}
	return result, nil
}

// lookupUser читает пользователя из Identity Store с таймаутом. nil - пользователя нет.
func lookupUser(ctx context.Context, timeout time.Duration, users UserStore, id int64) (*model.User, error) {
	return withDeadline(ctx, timeout, "identity store", func(ctx context.Context) (*model.User, error) {
		return users.GetByID(ctx, id)
	})
}

// lookupMentor проверяет, что пользователь существует и является ментором
func lookupMentor(ctx context.Context, timeout time.Duration, users UserStore, id int64) (*model.User, error) {
	mentor, err := lookupUser(ctx, timeout, users, id)
	if err != nil {
		return nil, err
	}
	if mentor == nil || !mentor.IsMentor {
		return nil, notFound("mentor %d not found", id)
	}
	return mentor, nil
}
