package model

import "time"

// DisplayStatus единственный статус, который видит пользователь. Не хранится в БД.
type DisplayStatus string

const (
	DisplayCompleted       DisplayStatus = "Completed"
	DisplayCancelled       DisplayStatus = "Cancelled"
	DisplayRejected        DisplayStatus = "Rejected"
	DisplayPendingApproval DisplayStatus = "Pending Approval"
	DisplayRescheduled     DisplayStatus = "Rescheduled"
	DisplayPaymentRequired DisplayStatus = "Payment Required"
	DisplayConfirmed       DisplayStatus = "Confirmed"
	DisplayUnknown         DisplayStatus = "Unknown Status"
)

type BookingKind string

const (
	BookingKindRequest BookingKind = "request"
	BookingKindSession BookingKind = "session"
)

// RequestView заявка с вычисленным статусом
type RequestView struct {
	SessionRequest
	SessionID *int64 `json:"session_id,omitempty"` // сессия, порождённая принятой заявкой
}

// SessionView сессия с вычисленным статусом
type SessionView struct {
	Session
}

// BookingView элемент общего списка. Заполнено ровно одно из Request / Session.
type BookingView struct {
	Kind          BookingKind   `json:"kind"`
	DisplayStatus DisplayStatus `json:"display_status"`
	Request       *RequestView  `json:"request,omitempty"`
	Session       *SessionView  `json:"session,omitempty"`
}

// NewRequestBooking оборачивает заявку
func NewRequestBooking(view RequestView, status DisplayStatus) BookingView {
	return BookingView{Kind: BookingKindRequest, DisplayStatus: status, Request: &view}
}

// NewSessionBooking оборачивает сессию
func NewSessionBooking(view SessionView, status DisplayStatus) BookingView {
	return BookingView{Kind: BookingKindSession, DisplayStatus: status, Session: &view}
}

// SessionDate дата занятия для сортировки
func (b BookingView) SessionDate() string {
	switch b.Kind {
	case BookingKindRequest:
		return b.Request.SessionDate
	case BookingKindSession:
		return b.Session.SessionDate
	}
	return ""
}

// CreatedAt время создания записи
func (b BookingView) CreatedAt() time.Time {
	switch b.Kind {
	case BookingKindRequest:
		return b.Request.CreatedAt
	case BookingKindSession:
		return b.Session.CreatedAt
	}
	return time.Time{}
}

// DashboardSummary сводка для кабинета ментора
type DashboardSummary struct {
	MentorID        int64             `json:"mentor_id"`
	PendingCount    int               `json:"pending_count"`
	PendingRequests []*SessionRequest `json:"pending_requests"`
}

// JoinInfo данные для внешнего сервиса звонков
type JoinInfo struct {
	SessionID      int64   `json:"session_id"`
	RoomIdentifier string  `json:"room_identifier"`
	ParticipantIDs []int64 `json:"participant_ids"`
}
