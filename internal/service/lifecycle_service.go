package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/notify"
	"github.com/Freeeeeet/mentor_sessions/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockTTL        = 10 * time.Second
	minRating      = 1
	maxRating      = 5
	sweepBatchSize = 100
)

// roomNamespace пространство имён для детерминированных идентификаторов комнат
var roomNamespace = uuid.MustParse("6f1c2a44-7f0b-4c53-9a55-2f3d5c9b8e11")

// EngineConfig настройки движка сессий
type EngineConfig struct {
	DependencyTimeout time.Duration
	Currency          string
}

// LifecycleService ведёт сессию от создания до оценки
type LifecycleService struct {
	store     Store
	projector *StatusProjector
	gateway   CheckoutGateway
	locker    Locker
	notifier  Notifier
	cfg       EngineConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewLifecycleService(
	store Store,
	projector *StatusProjector,
	gateway CheckoutGateway,
	locker Locker,
	notifier Notifier,
	cfg EngineConfig,
	logger *zap.Logger,
) *LifecycleService {
	if notifier == nil {
		notifier = NoopNotifier
	}
	return &LifecycleService{
		store:     store,
		projector: projector,
		gateway:   gateway,
		locker:    locker,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// DirectBookingInput прямое бронирование без заявки
type DirectBookingInput struct {
	MentorID    int64             `json:"mentor_id" validate:"required,gt=0"`
	SessionDate string            `json:"session_date" validate:"required,datetime=2006-01-02"`
	SessionTime string            `json:"session_time" validate:"required,datetime=15:04"`
	SessionType model.SessionType `json:"session_type" validate:"required,oneof=video audio chat in-person"`
	Notes       string            `json:"notes" validate:"max=2000"`
}

// RescheduleInput новое время занятия
type RescheduleInput struct {
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	SessionTime string `json:"session_time" validate:"required,datetime=15:04"`
}

// SpawnSessionFromAcceptedRequest создаёт сессию по принятой заявке.
// Повторный вызов для той же заявки возвращает уже созданную сессию.
func (s *LifecycleService) SpawnSessionFromAcceptedRequest(ctx context.Context, req *model.SessionRequest) (*model.Session, error) {
	if req == nil {
		return nil, validationFailed("request", "is required")
	}
	if req.Status != model.RequestStatusAccepted {
		return nil, invalidOperation("request %d is %s, only accepted requests spawn sessions", req.ID, req.Status)
	}

	var session *model.Session
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		session, err = s.spawnInTx(ctx, repos, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// spawnInTx создаёт сессию внутри уже открытой транзакции
func (s *LifecycleService) spawnInTx(ctx context.Context, repos Repositories, req *model.SessionRequest) (*model.Session, error) {
	existing, err := repos.Sessions.GetByRequestID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("get session by request: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	mentor, err := lookupMentor(ctx, s.cfg.DependencyTimeout, repos.Users, req.MentorID)
	if err != nil {
		return nil, err
	}
	if mentor.PricePerSession <= 0 {
		return nil, invalidOperation("mentor %d has no session price set", mentor.ID)
	}

	requestID := req.ID
	paymentID := model.PaymentPending
	session := &model.Session{
		RequestID:   &requestID,
		MentorID:    mentor.ID,
		MentorName:  mentor.DisplayName(),
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		SessionDate: req.SessionDate,
		SessionTime: req.SessionTime,
		SessionType: req.SessionType,
		Notes:       req.Notes,
		Price:       mentor.PricePerSession,
		PaymentID:   &paymentID,
		Status:      model.SessionStatusPending,
	}

	err = repos.Sessions.Create(ctx, session)
	if errors.Is(err, repository.ErrDuplicate) {
		// Параллельный вызов успел создать сессию первым
		existing, err := repos.Sessions.GetByRequestID(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("get session by request: %w", err)
		}
		if existing == nil {
			return nil, conflict("session for request %d is being created concurrently", req.ID)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("Session spawned from request",
		zap.Int64("session_id", session.ID),
		zap.Int64("request_id", req.ID),
		zap.Int64("price", session.Price),
	)

	return session, nil
}

// BookDirect бронирует занятие без предварительной заявки
func (s *LifecycleService) BookDirect(ctx context.Context, studentID int64, input DirectBookingInput) (*model.Session, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.MentorID == studentID {
		return nil, invalidOperation("cannot book a session with yourself")
	}

	repos := s.store.Repos()

	student, err := lookupUser(ctx, s.cfg.DependencyTimeout, repos.Users, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, notFound("student %d not found", studentID)
	}

	mentor, err := lookupMentor(ctx, s.cfg.DependencyTimeout, repos.Users, input.MentorID)
	if err != nil {
		return nil, err
	}
	if mentor.PricePerSession <= 0 {
		return nil, invalidOperation("mentor %d has no session price set", mentor.ID)
	}

	paymentID := model.PaymentPending
	session := &model.Session{
		MentorID:    mentor.ID,
		MentorName:  mentor.DisplayName(),
		StudentID:   student.ID,
		StudentName: student.DisplayName(),
		SessionDate: input.SessionDate,
		SessionTime: input.SessionTime,
		SessionType: input.SessionType,
		Notes:       strings.TrimSpace(input.Notes),
		Price:       mentor.PricePerSession,
		PaymentID:   &paymentID,
		Status:      model.SessionStatusPending,
	}

	if err := repos.Sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("Session booked directly",
		zap.Int64("session_id", session.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("mentor_id", mentor.ID),
	)

	s.notifier.Notify(ctx, mentor.ID, notify.SessionBooked(session, s.cfg.Currency))

	return session, nil
}

// GetSession возвращает сессию с вычисленным статусом. Видна только участникам.
func (s *LifecycleService) GetSession(ctx context.Context, sessionID, actorID int64) (*model.BookingView, error) {
	session, err := s.loadSession(ctx, s.store.Repos(), sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, permissionDenied("user %d is not a participant of session %d", actorID, sessionID)
	}

	view := model.NewSessionBooking(model.SessionView{Session: *session}, s.projector.Session(session))
	return &view, nil
}

// StartCheckout создаёт платёж во внешнем шлюзе. Оплатить может только студент.
func (s *LifecycleService) StartCheckout(ctx context.Context, sessionID, actorID int64) (*model.Checkout, error) {
	if s.gateway == nil {
		return nil, invalidOperation("payments are not configured")
	}

	session, err := s.loadSession(ctx, s.store.Repos(), sessionID)
	if err != nil {
		return nil, err
	}
	if actorID != session.StudentID {
		return nil, permissionDenied("only the student can pay for session %d", sessionID)
	}
	if session.IsTerminal() || session.HasPayment() {
		return nil, invalidOperation("session %d does not await payment", sessionID)
	}
	if session.Price <= 0 {
		return nil, invalidOperation("session %d has no price", sessionID)
	}

	req := model.CheckoutRequest{
		OrderID:      model.NewOrderID(session.ID),
		SessionID:    session.ID,
		Amount:       session.Price,
		ItemName:     fmt.Sprintf("Mentoring session %s %s", session.SessionDate, session.SessionTime),
		CustomerName: session.StudentName,
	}

	checkout, err := withDeadline(ctx, s.cfg.DependencyTimeout, "payment gateway", func(ctx context.Context) (*model.Checkout, error) {
		return s.gateway.CreateCheckout(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Checkout started",
		zap.Int64("session_id", session.ID),
		zap.String("order_id", checkout.OrderID),
	)

	return checkout, nil
}

// RecordPayment привязывает платёж к сессии и подтверждает её.
// Повтор с тем же transactionID ничего не меняет.
func (s *LifecycleService) RecordPayment(ctx context.Context, sessionID int64, transactionID string) (*model.Session, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" || transactionID == model.PaymentPending {
		return nil, validationFailed("transaction_id", "is required")
	}

	repos := s.store.Repos()

	unlock, err := s.acquire(ctx, fmt.Sprintf("session:%d:payment", sessionID))
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		// Повторная доставка того же платежа, пока первая ещё держит блокировку
		current, loadErr := s.loadSession(ctx, repos, sessionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if current.PaymentID != nil && *current.PaymentID == transactionID {
			return current, nil
		}
		return nil, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, repos, sessionID)
	if err != nil {
		return nil, err
	}

	if session.PaymentID != nil && *session.PaymentID == transactionID {
		s.logger.Info("Duplicate payment notification ignored",
			zap.Int64("session_id", sessionID),
			zap.String("transaction_id", transactionID),
		)
		return session, nil
	}
	if session.Price <= 0 {
		return nil, invalidOperation("session %d has no price", sessionID)
	}

	next, err := nextSessionStatus(session.Status, EvPaymentRecorded)
	if err != nil {
		return nil, err
	}

	if session.HasPayment() {
		s.logger.Warn("Payment id overwritten",
			zap.Int64("session_id", sessionID),
			zap.String("previous", *session.PaymentID),
			zap.String("current", transactionID),
		)
	}

	prev := session.Status
	session.PaymentID = &transactionID
	session.Status = next

	if err := repos.Sessions.Update(ctx, session, prev); err != nil {
		if !errors.Is(err, repository.ErrStaleState) {
			return nil, fmt.Errorf("update session: %w", err)
		}
		// Другой обработчик мог уже записать этот же платёж
		current, loadErr := s.loadSession(ctx, repos, sessionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if current.PaymentID != nil && *current.PaymentID == transactionID {
			return current, nil
		}
		return nil, conflict("session %d changed while recording payment", sessionID)
	}

	s.logger.Info("Payment recorded",
		zap.Int64("session_id", sessionID),
		zap.String("transaction_id", transactionID),
		zap.String("status", string(session.Status)),
	)

	msg := notify.PaymentReceived(session)
	s.notifier.Notify(ctx, session.StudentID, msg)
	s.notifier.Notify(ctx, session.MentorID, msg)

	return session, nil
}

// OnPaymentSucceeded обработчик успешного платежа из шлюза
func (s *LifecycleService) OnPaymentSucceeded(ctx context.Context, sessionID int64, transactionID string) error {
	_, err := s.RecordPayment(ctx, sessionID, transactionID)
	return err
}

// Reschedule переносит занятие. Любая сторона может предложить новое время.
func (s *LifecycleService) Reschedule(ctx context.Context, sessionID, actorID int64, input RescheduleInput) (*model.Session, error) {
	repos := s.store.Repos()
	session, err := s.loadSession(ctx, repos, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, permissionDenied("user %d is not a participant of session %d", actorID, sessionID)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	next, err := nextSessionStatus(session.Status, EvRescheduled)
	if err != nil {
		return nil, err
	}

	prev := session.Status
	session.SessionDate = input.SessionDate
	session.SessionTime = input.SessionTime
	session.Status = next
	session.RescheduledBy = &actorID

	if err := s.saveSession(ctx, repos, session, prev); err != nil {
		return nil, err
	}

	s.logger.Info("Session rescheduled",
		zap.Int64("session_id", sessionID),
		zap.Int64("actor_id", actorID),
		zap.String("date", session.SessionDate),
		zap.String("time", session.SessionTime),
	)

	s.notifier.Notify(ctx, counterparty(session, actorID), notify.SessionRescheduled(session))

	return session, nil
}

// AcknowledgeReschedule вторая сторона соглашается с новым временем.
// Оплаченная сессия снова становится confirmed, неоплаченная ждёт оплаты.
func (s *LifecycleService) AcknowledgeReschedule(ctx context.Context, sessionID, actorID int64) (*model.Session, error) {
	repos := s.store.Repos()
	session, err := s.loadSession(ctx, repos, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, permissionDenied("user %d is not a participant of session %d", actorID, sessionID)
	}
	if _, err := nextSessionStatus(session.Status, EvRescheduleAcknowledged); err != nil {
		return nil, err
	}
	if session.RescheduledBy != nil && *session.RescheduledBy == actorID {
		return nil, permissionDenied("the other participant must acknowledge the new time")
	}

	prev := session.Status
	session.Status = model.SessionStatusPending
	if session.HasPayment() {
		session.Status = model.SessionStatusConfirmed
	}
	session.RescheduledBy = nil

	if err := s.saveSession(ctx, repos, session, prev); err != nil {
		return nil, err
	}

	s.logger.Info("Reschedule acknowledged",
		zap.Int64("session_id", sessionID),
		zap.Int64("actor_id", actorID),
		zap.String("status", string(session.Status)),
	)

	s.notifier.Notify(ctx, counterparty(session, actorID), notify.RescheduleAcknowledged(session))

	return session, nil
}

// Cancel отменяет незавершённую сессию
func (s *LifecycleService) Cancel(ctx context.Context, sessionID, actorID int64) (*model.Session, error) {
	repos := s.store.Repos()
	session, err := s.loadSession(ctx, repos, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, permissionDenied("user %d is not a participant of session %d", actorID, sessionID)
	}

	next, err := nextSessionStatus(session.Status, EvCancelled)
	if err != nil {
		return nil, err
	}

	prev := session.Status
	session.Status = next
	if err := s.saveSession(ctx, repos, session, prev); err != nil {
		return nil, err
	}

	s.logger.Info("Session cancelled",
		zap.Int64("session_id", sessionID),
		zap.Int64("actor_id", actorID),
	)

	s.notifier.Notify(ctx, counterparty(session, actorID), notify.SessionCancelled(session))

	return session, nil
}

// CompleteAndRate студент завершает оплаченное занятие и ставит оценку.
// Статус и счётчик ментора меняются в одной транзакции.
func (s *LifecycleService) CompleteAndRate(ctx context.Context, sessionID, actorID int64, rating int, feedback string) (*model.Session, error) {
	var session *model.Session

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		session, err = s.loadSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if actorID != session.StudentID {
			return permissionDenied("only the student can rate session %d", sessionID)
		}
		if rating < minRating || rating > maxRating {
			return validationFailed("rating", "must be between %d and %d", minRating, maxRating)
		}
		if session.Status == model.SessionStatusCompleted {
			return invalidOperation("session %d is already completed and rated", sessionID)
		}
		if !session.IsPaidConfirmed() {
			return invalidOperation("session %d is not paid and confirmed", sessionID)
		}

		next, err := nextSessionStatus(session.Status, EvCompleted)
		if err != nil {
			return err
		}

		prev := session.Status
		session.Status = next
		session.Rating = &rating
		if fb := strings.TrimSpace(feedback); fb != "" {
			session.Feedback = &fb
		}

		if err := s.saveSession(ctx, repos, session, prev); err != nil {
			return err
		}

		_, err = withDeadline(ctx, s.cfg.DependencyTimeout, "identity store", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, repos.Users.IncrementSessionsCompleted(ctx, session.MentorID)
		})
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound("mentor %d not found", session.MentorID)
		}
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session completed",
		zap.Int64("session_id", sessionID),
		zap.Int64("mentor_id", session.MentorID),
		zap.Int("rating", rating),
	)

	s.notifier.Notify(ctx, session.MentorID, notify.SessionRated(session))

	return session, nil
}

// GetJoinableSessionInfo данные для подключения к звонку. Доступны только для Confirmed.
func (s *LifecycleService) GetJoinableSessionInfo(ctx context.Context, sessionID, actorID int64) (*model.JoinInfo, error) {
	session, err := s.loadSession(ctx, s.store.Repos(), sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsParticipant(actorID) {
		return nil, permissionDenied("user %d is not a participant of session %d", actorID, sessionID)
	}
	if status := s.projector.Session(session); status != model.DisplayConfirmed {
		return nil, invalidOperation("session %d is %s, only confirmed sessions can be joined", sessionID, status)
	}

	return &model.JoinInfo{
		SessionID:      session.ID,
		RoomIdentifier: RoomIdentifier(session.ID),
		ParticipantIDs: []int64{session.StudentID, session.MentorID},
	}, nil
}

// RoomIdentifier стабильный идентификатор комнаты для сессии
func RoomIdentifier(sessionID int64) string {
	return uuid.NewSHA1(roomNamespace, []byte(fmt.Sprintf("session:%d", sessionID))).String()
}

// CancelUnpaidSessions отменяет сессии, не оплаченные дольше olderThan
func (s *LifecycleService) CancelUnpaidSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	repos := s.store.Repos()
	before := s.now().Add(-olderThan)

	sessions, err := repos.Sessions.ListUnpaidCreatedBefore(ctx, before, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unpaid sessions: %w", err)
	}

	cancelled := 0
	for _, session := range sessions {
		prev := session.Status
		session.Status = model.SessionStatusCancelled

		if err := repos.Sessions.Update(ctx, session, prev); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				// Оплата пришла между выборкой и обновлением
				continue
			}
			s.logger.Error("Failed to cancel unpaid session",
				zap.Int64("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}

		cancelled++
		msg := notify.UnpaidSessionCancelled(session)
		s.notifier.Notify(ctx, session.StudentID, msg)
		s.notifier.Notify(ctx, session.MentorID, msg)
	}

	if cancelled > 0 {
		s.logger.Info("Unpaid sessions cancelled", zap.Int("count", cancelled))
	}

	return cancelled, nil
}

func (s *LifecycleService) loadSession(ctx context.Context, repos Repositories, sessionID int64) (*model.Session, error) {
	session, err := repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, notFound("session %d not found", sessionID)
	}
	return session, nil
}

// saveSession сохраняет сессию, если статус не изменился с момента чтения
func (s *LifecycleService) saveSession(ctx context.Context, repos Repositories, session *model.Session, expected model.SessionStatus) error {
	err := repos.Sessions.Update(ctx, session, expected)
	if errors.Is(err, repository.ErrStaleState) {
		return conflict("session %d was modified concurrently", session.ID)
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// acquire берёт распределённую блокировку. Недоступный Redis не блокирует операцию:
// корректность обеспечивают условные обновления в БД.
func (s *LifecycleService) acquire(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	type lockResult struct {
		unlock   func(context.Context) error
		acquired bool
	}
	res, err := withDeadline(ctx, s.cfg.DependencyTimeout, "lock store", func(ctx context.Context) (lockResult, error) {
		unlock, acquired, err := s.locker.TryLock(ctx, key, lockTTL)
		return lockResult{unlock: unlock, acquired: acquired}, err
	})
	if err != nil {
		s.logger.Warn("Lock store unavailable, relying on conditional updates",
			zap.String("key", key),
			zap.Error(err),
		)
		return noop, nil
	}
	if !res.acquired {
		return nil, conflict("operation on %s is already in progress", key)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lockTimeout())
		defer cancel()
		if err := res.unlock(releaseCtx); err != nil {
			s.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *LifecycleService) lockTimeout() time.Duration {
	if s.cfg.DependencyTimeout > 0 {
		return s.cfg.DependencyTimeout
	}
	return defaultDependencyTimeout
}

func counterparty(session *model.Session, actorID int64) int64 {
	if actorID == session.StudentID {
		return session.MentorID
	}
	return session.StudentID
}
