package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/mentor_sessions/internal/httpapi/handlers"
	"github.com/Freeeeeet/mentor_sessions/internal/httpapi/middleware"
)

// RouterDeps обработчики, из которых собирается роутер
type RouterDeps struct {
	Requests *handlers.RequestHandlers
	Sessions *handlers.SessionHandlers
	Bookings *handlers.BookingHandlers
	Payments *handlers.PaymentHandlers
	Health   http.HandlerFunc
}

// NewRouter регистрирует маршруты. Всё, кроме health и уведомлений шлюза, требует JWT.
func NewRouter(deps RouterDeps, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", deps.Health)
	mux.HandleFunc("POST /payments/midtrans/notification", deps.Payments.MidtransNotification)

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, auth)
	}

	mux.Handle("POST /requests", authenticated(deps.Requests.Create))
	mux.Handle("GET /requests/{id}", authenticated(deps.Requests.Get))
	mux.Handle("PATCH /requests/{id}/status", authenticated(deps.Requests.UpdateStatus))

	mux.Handle("GET /mentors/me/dashboard", authenticated(deps.Bookings.Dashboard))
	mux.Handle("GET /bookings", authenticated(deps.Bookings.List))

	mux.Handle("POST /sessions", authenticated(deps.Sessions.BookDirect))
	mux.Handle("GET /sessions/{id}", authenticated(deps.Sessions.Get))
	mux.Handle("POST /sessions/{id}/checkout", authenticated(deps.Sessions.Checkout))
	mux.Handle("POST /sessions/{id}/reschedule", authenticated(deps.Sessions.Reschedule))
	mux.Handle("POST /sessions/{id}/reschedule/acknowledge", authenticated(deps.Sessions.AcknowledgeReschedule))
	mux.Handle("POST /sessions/{id}/cancel", authenticated(deps.Sessions.Cancel))
	mux.Handle("POST /sessions/{id}/rating", authenticated(deps.Sessions.Rate))
	mux.Handle("GET /sessions/{id}/join", authenticated(deps.Sessions.Join))

	return mux
}
