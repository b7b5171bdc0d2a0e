package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/notify"
	"github.com/Freeeeeet/mentor_sessions/internal/repository"
	"go.uber.org/zap"
)

// RequestService заявки студентов и решения менторов по ним
type RequestService struct {
	store     Store
	engine    *LifecycleService
	projector *StatusProjector
	notifier  Notifier
	logger    *zap.Logger
}

func NewRequestService(
	store Store,
	engine *LifecycleService,
	projector *StatusProjector,
	notifier Notifier,
	logger *zap.Logger,
) *RequestService {
	if notifier == nil {
		notifier = NoopNotifier
	}
	return &RequestService{
		store:     store,
		engine:    engine,
		projector: projector,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateRequestInput данные новой заявки
type CreateRequestInput struct {
	MentorID    int64             `json:"mentor_id" validate:"required,gt=0"`
	SessionDate string            `json:"session_date" validate:"required,datetime=2006-01-02"`
	SessionTime string            `json:"session_time" validate:"required,datetime=15:04"`
	SessionType model.SessionType `json:"session_type" validate:"required,oneof=video chat in-person"`
	Notes       string            `json:"notes" validate:"max=2000"`
}

// RequestDecision результат решения ментора. Session заполнена только при принятии.
type RequestDecision struct {
	Request *model.SessionRequest `json:"request"`
	Session *model.Session        `json:"session,omitempty"`
}

// Create создаёт заявку в статусе pending
func (s *RequestService) Create(ctx context.Context, studentID int64, input CreateRequestInput) (*model.SessionRequest, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.MentorID == studentID {
		return nil, invalidOperation("cannot request a session with yourself")
	}

	repos := s.store.Repos()
	timeout := s.engine.cfg.DependencyTimeout

	student, err := lookupUser(ctx, timeout, repos.Users, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, notFound("student %d not found", studentID)
	}

	mentor, err := lookupMentor(ctx, timeout, repos.Users, input.MentorID)
	if err != nil {
		return nil, err
	}

	req := &model.SessionRequest{
		MentorID:      mentor.ID,
		StudentID:     student.ID,
		StudentName:   student.DisplayName(),
		SessionDate:   input.SessionDate,
		SessionTime:   input.SessionTime,
		SessionType:   input.SessionType,
		Notes:         strings.TrimSpace(input.Notes),
		Status:        model.RequestStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}

	if err := repos.Requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}

	s.logger.Info("Session request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("mentor_id", mentor.ID),
	)

	s.notifier.Notify(ctx, mentor.ID, notify.RequestCreated(req))

	return req, nil
}

// Get возвращает заявку с вычисленным статусом. Видна только её сторонам.
func (s *RequestService) Get(ctx context.Context, requestID, actorID int64) (*model.BookingView, error) {
	repos := s.store.Repos()
	req, err := s.loadRequest(ctx, repos, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != req.MentorID && actorID != req.StudentID {
		return nil, permissionDenied("user %d is not a participant of request %d", actorID, requestID)
	}

	view := model.RequestView{SessionRequest: *req}
	var spawned *model.Session
	if req.Status == model.RequestStatusAccepted {
		spawned, err = repos.Sessions.GetByRequestID(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("get session by request: %w", err)
		}
		if spawned != nil {
			view.SessionID = &spawned.ID
		}
	}

	booking := model.NewRequestBooking(view, s.projector.Request(req, spawned))
	return &booking, nil
}

// UpdateStatus решение ментора по заявке. Принятие атомарно создаёт сессию:
// если сессию создать нельзя, заявка остаётся pending.
func (s *RequestService) UpdateStatus(ctx context.Context, requestID, actorID int64, newStatus string) (*RequestDecision, error) {
	status := model.RequestStatus(strings.ToLower(strings.TrimSpace(newStatus)))
	switch status {
	case model.RequestStatusAccepted, model.RequestStatusRejected, model.RequestStatusPending:
	default:
		return nil, validationFailed("status", "must be one of: accepted rejected pending")
	}

	repos := s.store.Repos()
	req, err := s.loadRequest(ctx, repos, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != req.MentorID {
		return nil, permissionDenied("only the mentor can decide on request %d", requestID)
	}

	if status == model.RequestStatusPending {
		if req.IsPending() {
			return &RequestDecision{Request: req}, nil
		}
		return nil, invalidOperation("request %d is already %s", requestID, req.Status)
	}
	if !req.IsPending() {
		if req.Status == status {
			// Такое же решение уже принято параллельным запросом
			return nil, conflict("request %d is already %s", requestID, req.Status)
		}
		return nil, invalidOperation("request %d is already %s", requestID, req.Status)
	}

	unlock, err := s.engine.acquire(ctx, fmt.Sprintf("request:%d:decision", requestID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	decision := &RequestDecision{}
	if status == model.RequestStatusRejected {
		updated, err := repos.Requests.UpdateStatusIfCurrent(ctx, requestID, model.RequestStatusPending, model.RequestStatusRejected)
		if err != nil {
			return nil, s.decisionError(requestID, err)
		}
		decision.Request = updated
	} else {
		err = s.store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
			updated, err := repos.Requests.UpdateStatusIfCurrent(ctx, requestID, model.RequestStatusPending, model.RequestStatusAccepted)
			if err != nil {
				return s.decisionError(requestID, err)
			}
			session, err := s.engine.spawnInTx(ctx, repos, updated)
			if err != nil {
				return err
			}
			decision.Request = updated
			decision.Session = session
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("Session request decided",
		zap.Int64("request_id", requestID),
		zap.Int64("mentor_id", actorID),
		zap.String("status", string(decision.Request.Status)),
	)

	if decision.Session != nil {
		s.notifier.Notify(ctx, req.StudentID, notify.RequestAccepted(decision.Request, decision.Session, s.engine.cfg.Currency))
	} else {
		s.notifier.Notify(ctx, req.StudentID, notify.RequestRejected(decision.Request))
	}

	return decision, nil
}

// ListForMentor заявки ментора, новые первыми
func (s *RequestService) ListForMentor(ctx context.Context, mentorID int64) ([]*model.SessionRequest, error) {
	requests, err := s.store.Repos().Requests.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("list requests by mentor: %w", err)
	}
	return requests, nil
}

// ListForStudent заявки студента, новые первыми
func (s *RequestService) ListForStudent(ctx context.Context, studentID int64) ([]*model.SessionRequest, error) {
	requests, err := s.store.Repos().Requests.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list requests by student: %w", err)
	}
	return requests, nil
}

// CountPending количество заявок, ждущих решения ментора
func (s *RequestService) CountPending(ctx context.Context, mentorID int64) (int, error) {
	count, err := s.store.Repos().Requests.CountPendingByMentor(ctx, mentorID)
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

func (s *RequestService) loadRequest(ctx context.Context, repos Repositories, requestID int64) (*model.SessionRequest, error) {
	req, err := repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get session request: %w", err)
	}
	if req == nil {
		return nil, notFound("request %d not found", requestID)
	}
	return req, nil
}

func (s *RequestService) decisionError(requestID int64, err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return conflict("request %d was decided concurrently", requestID)
	}
	return fmt.Errorf("update request status: %w", err)
}
