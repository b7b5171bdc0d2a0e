package handlers

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

type RequestService interface {
	Create(ctx context.Context, studentID int64, input service.CreateRequestInput) (*model.SessionRequest, error)
	Get(ctx context.Context, requestID, actorID int64) (*model.BookingView, error)
	UpdateStatus(ctx context.Context, requestID, actorID int64, newStatus string) (*service.RequestDecision, error)
}

// RequestHandlers заявки на занятия
type RequestHandlers struct {
	requests RequestService
	logger   *zap.Logger
}

func NewRequestHandlers(requests RequestService, logger *zap.Logger) *RequestHandlers {
	return &RequestHandlers{requests: requests, logger: logger}
}

// Create POST /requests
func (h *RequestHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	var input service.CreateRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	req, err := h.requests.Create(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// Get GET /requests/{id}
func (h *RequestHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.requests.Get(r.Context(), requestID, userID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type updateStatusBody struct {
	Status string `json:"status"`
}

// UpdateStatus PATCH /requests/{id}/status
func (h *RequestHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	var body updateStatusBody
	if !decodeJSON(w, r, &body) {
		return
	}

	decision, err := h.requests.UpdateStatus(r.Context(), requestID, userID, body.Status)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}
