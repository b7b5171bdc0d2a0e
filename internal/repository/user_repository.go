package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/repository/base"
)

type UserRepository struct {
	db base.DBTX
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, telegram_id, username, first_name, last_name, is_mentor, price_per_session, sessions_completed, created_at`

func scanUser(row base.Scanner, user *model.User) error {
	return row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.IsMentor,
		&user.PricePerSession,
		&user.SessionsCompleted,
		&user.CreatedAt,
	)
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, is_mentor, price_per_session)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, sessions_completed, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsMentor,
		user.PricePerSession,
	).Scan(&user.ID, &user.SessionsCompleted, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := scanUser(r.db.QueryRow(ctx, query, id), &user); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	var user model.User
	if err := scanUser(r.db.QueryRow(ctx, query, telegramID), &user); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return &user, nil
}

// IncrementSessionsCompleted атомарно увеличивает счётчик завершённых занятий ментора
func (r *UserRepository) IncrementSessionsCompleted(ctx context.Context, mentorID int64) error {
	query := `
		UPDATE users
		SET sessions_completed = sessions_completed + 1
		WHERE id = $1 AND is_mentor = true
	`

	result, err := r.db.Exec(ctx, query, mentorID)
	if err != nil {
		return fmt.Errorf("increment sessions completed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
