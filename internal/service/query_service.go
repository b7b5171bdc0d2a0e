package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

const dashboardPendingLimit = 5

// BookingQueryService единый список бронирований и сводка для ментора
type BookingQueryService struct {
	store     Store
	projector *StatusProjector
	cfg       EngineConfig
	logger    *zap.Logger
}

func NewBookingQueryService(store Store, projector *StatusProjector, cfg EngineConfig, logger *zap.Logger) *BookingQueryService {
	return &BookingQueryService{
		store:     store,
		projector: projector,
		cfg:       cfg,
		logger:    logger,
	}
}

// ListBookingsForViewer объединяет заявки и сессии пользователя в одной роли.
// Сортировка: дата занятия по убыванию, при равенстве время создания по убыванию.
func (s *BookingQueryService) ListBookingsForViewer(ctx context.Context, viewerID int64, role model.Role) ([]model.BookingView, error) {
	var (
		requests []*model.SessionRequest
		sessions []*model.Session
		err      error
	)

	repos := s.store.Repos()
	switch role {
	case model.RoleStudent:
		if requests, err = repos.Requests.ListByStudent(ctx, viewerID); err != nil {
			return nil, fmt.Errorf("list requests by student: %w", err)
		}
		if sessions, err = repos.Sessions.ListByStudent(ctx, viewerID); err != nil {
			return nil, fmt.Errorf("list sessions by student: %w", err)
		}
	case model.RoleMentor:
		if requests, err = repos.Requests.ListByMentor(ctx, viewerID); err != nil {
			return nil, fmt.Errorf("list requests by mentor: %w", err)
		}
		if sessions, err = repos.Sessions.ListByMentor(ctx, viewerID); err != nil {
			return nil, fmt.Errorf("list sessions by mentor: %w", err)
		}
	default:
		return nil, validationFailed("role", "must be one of: student mentor")
	}

	spawned := make(map[int64]*model.Session, len(sessions))
	for _, session := range sessions {
		if session.RequestID != nil {
			spawned[*session.RequestID] = session
		}
	}

	bookings := make([]model.BookingView, 0, len(requests)+len(sessions))
	for _, req := range requests {
		view := model.RequestView{SessionRequest: *req}
		session := spawned[req.ID]
		if session != nil {
			view.SessionID = &session.ID
		}
		bookings = append(bookings, model.NewRequestBooking(view, s.projector.Request(req, session)))
	}
	for _, session := range sessions {
		bookings = append(bookings, model.NewSessionBooking(model.SessionView{Session: *session}, s.projector.Session(session)))
	}

	SortBookings(bookings)
	return bookings, nil
}

// SortBookings сортирует по дате занятия, затем по времени создания, оба по убыванию.
// Пустая дата уходит в конец.
func SortBookings(bookings []model.BookingView) {
	sort.SliceStable(bookings, func(i, j int) bool {
		di, dj := bookings[i].SessionDate(), bookings[j].SessionDate()
		if di != dj {
			return di > dj
		}
		return bookings[i].CreatedAt().After(bookings[j].CreatedAt())
	})
}

// UserByTelegramID пользователь, привязавший Telegram. nil, если такого нет.
func (s *BookingQueryService) UserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return withDeadline(ctx, s.cfg.DependencyTimeout, "identity store", func(ctx context.Context) (*model.User, error) {
		return s.store.Repos().Users.GetByTelegramID(ctx, telegramID)
	})
}

// GetDashboardSummary число ожидающих заявок и пять последних из них
func (s *BookingQueryService) GetDashboardSummary(ctx context.Context, mentorID int64) (*model.DashboardSummary, error) {
	repos := s.store.Repos()

	if _, err := lookupMentor(ctx, s.cfg.DependencyTimeout, repos.Users, mentorID); err != nil {
		return nil, err
	}

	count, err := repos.Requests.CountPendingByMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("count pending requests: %w", err)
	}

	pending, err := repos.Requests.ListPendingByMentor(ctx, mentorID, dashboardPendingLimit)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	if pending == nil {
		pending = []*model.SessionRequest{}
	}

	return &model.DashboardSummary{
		MentorID:        mentorID,
		PendingCount:    count,
		PendingRequests: pending,
	}, nil
}
