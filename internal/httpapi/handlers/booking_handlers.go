package handlers

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

type BookingQueries interface {
	ListBookingsForViewer(ctx context.Context, viewerID int64, role model.Role) ([]model.BookingView, error)
	GetDashboardSummary(ctx context.Context, mentorID int64) (*model.DashboardSummary, error)
}

// BookingHandlers списки и сводки
type BookingHandlers struct {
	queries BookingQueries
	logger  *zap.Logger
}

func NewBookingHandlers(queries BookingQueries, logger *zap.Logger) *BookingHandlers {
	return &BookingHandlers{queries: queries, logger: logger}
}

// List GET /bookings?role=student|mentor
func (h *BookingHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	role, ok := model.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "must be one of: student mentor", Field: "role"})
		return
	}

	bookings, err := h.queries.ListBookingsForViewer(r.Context(), userID, role)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if bookings == nil {
		bookings = []model.BookingView{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// Dashboard GET /mentors/me/dashboard
func (h *BookingHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	summary, err := h.queries.GetDashboardSummary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
