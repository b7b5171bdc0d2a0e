package model

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // Ожидает решения ментора
	RequestStatusAccepted  RequestStatus = "accepted"  // Принята, дальше живёт Session
	RequestStatusRejected  RequestStatus = "rejected"  // Отклонена ментором
	RequestStatusCompleted RequestStatus = "completed" // Историческое значение
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// SessionType формат занятия
type SessionType string

const (
	SessionTypeVideo    SessionType = "video"
	SessionTypeAudio    SessionType = "audio"
	SessionTypeChat     SessionType = "chat"
	SessionTypeInPerson SessionType = "in-person"
)

// SessionRequest заявка студента на занятие с ментором
type SessionRequest struct {
	ID            int64         `json:"id"`
	MentorID      int64         `json:"mentor_id"`
	StudentID     int64         `json:"student_id"`
	StudentName   string        `json:"student_name"` // снапшот на момент создания
	SessionDate   string        `json:"session_date"` // YYYY-MM-DD
	SessionTime   string        `json:"session_time"` // HH:MM
	SessionType   SessionType   `json:"session_type"`
	Notes         string        `json:"notes"`
	Status        RequestStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsPending проверяет, ждёт ли заявка решения
func (r *SessionRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsTerminal заявка больше не меняется
func (r *SessionRequest) IsTerminal() bool {
	switch r.Status {
	case RequestStatusAccepted, RequestStatusRejected, RequestStatusCompleted:
		return true
	}
	return false
}
