package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/repository/base"
)

type SessionRequestRepository struct {
	db base.DBTX
}

func NewSessionRequestRepository(db base.DBTX) *SessionRequestRepository {
	return &SessionRequestRepository{db: db}
}

const requestColumns = `id, mentor_id, student_id, student_name, session_date, session_time, session_type, notes, status, payment_status, created_at, updated_at`

func scanRequest(row base.Scanner, req *model.SessionRequest) error {
	return row.Scan(
		&req.ID,
		&req.MentorID,
		&req.StudentID,
		&req.StudentName,
		&req.SessionDate,
		&req.SessionTime,
		&req.SessionType,
		&req.Notes,
		&req.Status,
		&req.PaymentStatus,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}

// Create создаёт заявку
func (r *SessionRequestRepository) Create(ctx context.Context, req *model.SessionRequest) error {
	query := `
		INSERT INTO session_requests (mentor_id, student_id, student_name, session_date, session_time, session_type, notes, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		req.MentorID,
		req.StudentID,
		req.StudentName,
		req.SessionDate,
		req.SessionTime,
		req.SessionType,
		req.Notes,
		req.Status,
		req.PaymentStatus,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *SessionRequestRepository) GetByID(ctx context.Context, id int64) (*model.SessionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM session_requests WHERE id = $1`

	var req model.SessionRequest
	if err := scanRequest(r.db.QueryRow(ctx, query, id), &req); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session request: %w", err)
	}

	return &req, nil
}

// UpdateStatusIfCurrent меняет статус, только если заявка всё ещё в статусе current.
// Из двух конкурентных переходов выигрывает первый, второй получает ErrStaleState.
func (r *SessionRequestRepository) UpdateStatusIfCurrent(ctx context.Context, id int64, current, next model.RequestStatus) (*model.SessionRequest, error) {
	query := `
		UPDATE session_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + requestColumns

	var req model.SessionRequest
	if err := scanRequest(r.db.QueryRow(ctx, query, id, current, next), &req); err != nil {
		if base.IsNotFound(err) {
			return nil, ErrStaleState
		}
		return nil, fmt.Errorf("update session request status: %w", err)
	}

	return &req, nil
}

// ListByMentor получает заявки ментора, новые первыми
func (r *SessionRequestRepository) ListByMentor(ctx context.Context, mentorID int64) ([]*model.SessionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE mentor_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, mentorID)
}

// ListByStudent получает заявки студента, новые первыми
func (r *SessionRequestRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.SessionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE student_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, studentID)
}

// ListPendingByMentor получает последние pending заявки ментора
func (r *SessionRequestRepository) ListPendingByMentor(ctx context.Context, mentorID int64, limit int) ([]*model.SessionRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM session_requests
		WHERE mentor_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	return r.list(ctx, query, mentorID, model.RequestStatusPending, limit)
}

// CountPendingByMentor подсчитывает количество pending заявок ментора
func (r *SessionRequestRepository) CountPendingByMentor(ctx context.Context, mentorID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM session_requests
		WHERE mentor_id = $1 AND status = $2
	`

	var count int
	err := r.db.QueryRow(ctx, query, mentorID, model.RequestStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}

	return count, nil
}

func (r *SessionRequestRepository) list(ctx context.Context, query string, args ...any) ([]*model.SessionRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.SessionRequest
	for rows.Next() {
		var req model.SessionRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, fmt.Errorf("scan session request: %w", err)
		}
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session requests: %w", err)
	}

	return requests, nil
}
