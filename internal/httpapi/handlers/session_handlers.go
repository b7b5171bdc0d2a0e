package handlers

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

type SessionService interface {
	BookDirect(ctx context.Context, studentID int64, input service.DirectBookingInput) (*model.Session, error)
	GetSession(ctx context.Context, sessionID, actorID int64) (*model.BookingView, error)
	StartCheckout(ctx context.Context, sessionID, actorID int64) (*model.Checkout, error)
	Reschedule(ctx context.Context, sessionID, actorID int64, input service.RescheduleInput) (*model.Session, error)
	AcknowledgeReschedule(ctx context.Context, sessionID, actorID int64) (*model.Session, error)
	Cancel(ctx context.Context, sessionID, actorID int64) (*model.Session, error)
	CompleteAndRate(ctx context.Context, sessionID, actorID int64, rating int, feedback string) (*model.Session, error)
	GetJoinableSessionInfo(ctx context.Context, sessionID, actorID int64) (*model.JoinInfo, error)
}

// SessionHandlers оплачиваемые сессии
type SessionHandlers struct {
	sessions SessionService
	logger   *zap.Logger
}

func NewSessionHandlers(sessions SessionService, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{sessions: sessions, logger: logger}
}

// BookDirect POST /sessions
func (h *SessionHandlers) BookDirect(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	var input service.DirectBookingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	session, err := h.sessions.BookDirect(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// Get GET /sessions/{id}
func (h *SessionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sessionID, userID int64) (any, error) {
		return h.sessions.GetSession(ctx, sessionID, userID)
	})
}

// Checkout POST /sessions/{id}/checkout
func (h *SessionHandlers) Checkout(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sessionID, userID int64) (any, error) {
		return h.sessions.StartCheckout(ctx, sessionID, userID)
	})
}

// Reschedule POST /sessions/{id}/reschedule
func (h *SessionHandlers) Reschedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	var input service.RescheduleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	session, err := h.sessions.Reschedule(r.Context(), sessionID, userID, input)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// AcknowledgeReschedule POST /sessions/{id}/reschedule/acknowledge
func (h *SessionHandlers) AcknowledgeReschedule(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sessionID, userID int64) (any, error) {
		session, err := h.sessions.AcknowledgeReschedule(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		return sessionResponse(session), nil
	})
}

// Cancel POST /sessions/{id}/cancel
func (h *SessionHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sessionID, userID int64) (any, error) {
		session, err := h.sessions.Cancel(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		return sessionResponse(session), nil
	})
}

type rateBody struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Rate POST /sessions/{id}/rating
func (h *SessionHandlers) Rate(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	var body rateBody
	if !decodeJSON(w, r, &body) {
		return
	}

	session, err := h.sessions.CompleteAndRate(r.Context(), sessionID, userID, body.Rating, body.Feedback)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Join GET /sessions/{id}/join
func (h *SessionHandlers) Join(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, sessionID, userID int64) (any, error) {
		return h.sessions.GetJoinableSessionInfo(ctx, sessionID, userID)
	})
}

// withSession общий каркас для операций без тела запроса
func (h *SessionHandlers) withSession(w http.ResponseWriter, r *http.Request, call func(ctx context.Context, sessionID, userID int64) (any, error)) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := call(r.Context(), sessionID, userID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
