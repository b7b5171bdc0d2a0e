package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/repository/base"
)

type SessionRepository struct {
	db base.DBTX
}

func NewSessionRepository(db base.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, request_id, mentor_id, mentor_name, student_id, student_name, session_date, session_time, session_type, notes, price, payment_id, status, rating, feedback, rescheduled_by, created_at, updated_at`

func scanSession(row base.Scanner, s *model.Session) error {
	return row.Scan(
		&s.ID,
		&s.RequestID,
		&s.MentorID,
		&s.MentorName,
		&s.StudentID,
		&s.StudentName,
		&s.SessionDate,
		&s.SessionTime,
		&s.SessionType,
		&s.Notes,
		&s.Price,
		&s.PaymentID,
		&s.Status,
		&s.Rating,
		&s.Feedback,
		&s.RescheduledBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// Create создаёт сессию. Повторная сессия для той же заявки даёт ErrDuplicate.
// ON CONFLICT не обрывает транзакцию, поэтому после ErrDuplicate можно перечитать существующую запись.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (request_id, mentor_id, mentor_name, student_id, student_name, session_date, session_time, session_type, notes, price, payment_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (request_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		s.RequestID,
		s.MentorID,
		s.MentorName,
		s.StudentID,
		s.StudentName,
		s.SessionDate,
		s.SessionTime,
		s.SessionType,
		s.Notes,
		s.Price,
		s.PaymentID,
		s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) || base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	var s model.Session
	if err := scanSession(r.db.QueryRow(ctx, query, id), &s); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return &s, nil
}

// GetByRequestID получает сессию, порождённую заявкой
func (r *SessionRepository) GetByRequestID(ctx context.Context, requestID int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE request_id = $1`

	var s model.Session
	if err := scanSession(r.db.QueryRow(ctx, query, requestID), &s); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by request id: %w", err)
	}

	return &s, nil
}

// Update сохраняет изменяемые поля, если сессия всё ещё в статусе expected.
// При гонке возвращает ErrStaleState.
func (r *SessionRepository) Update(ctx context.Context, s *model.Session, expected model.SessionStatus) error {
	query := `
		UPDATE sessions
		SET session_date = $3,
		    session_time = $4,
		    payment_id = $5,
		    status = $6,
		    rating = $7,
		    feedback = $8,
		    rescheduled_by = $9,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		s.ID,
		expected,
		s.SessionDate,
		s.SessionTime,
		s.PaymentID,
		s.Status,
		s.Rating,
		s.Feedback,
		s.RescheduledBy,
	).Scan(&s.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrStaleState
		}
		return fmt.Errorf("update session: %w", err)
	}

	return nil
}

// ListByMentor получает сессии ментора
func (r *SessionRepository) ListByMentor(ctx context.Context, mentorID int64) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE mentor_id = $1
		ORDER BY session_date DESC, created_at DESC
	`
	return r.list(ctx, query, mentorID)
}

// ListByStudent получает сессии студента
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE student_id = $1
		ORDER BY session_date DESC, created_at DESC
	`
	return r.list(ctx, query, studentID)
}

// ListUnpaidCreatedBefore получает неоплаченные pending сессии старше before
func (r *SessionRepository) ListUnpaidCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = $1
		  AND (payment_id IS NULL OR payment_id = $2)
		  AND created_at < $3
		ORDER BY created_at ASC
		LIMIT $4
	`
	return r.list(ctx, query, model.SessionStatusPending, model.PaymentPending, before, limit)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]*model.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var s model.Session
		if err := scanSession(rows, &s); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
