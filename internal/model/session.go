package model

import "time"

type SessionStatus string

const (
	SessionStatusPending     SessionStatus = "pending"     // Ожидает оплаты
	SessionStatusConfirmed   SessionStatus = "confirmed"   // Оплачена и подтверждена
	SessionStatusCompleted   SessionStatus = "completed"   // Завершена и оценена
	SessionStatusCancelled   SessionStatus = "cancelled"   // Отменена
	SessionStatusRescheduled SessionStatus = "rescheduled" // Перенесена одной из сторон

	// SessionStatusAccepted встречается в старых записях, созданных до разделения заявок и сессий
	SessionStatusAccepted SessionStatus = "accepted"
)

// PaymentPending значение payment_id до оплаты. Отличается от отсутствующего значения.
const PaymentPending = "pending"

// Session оплачиваемая запись о занятии
type Session struct {
	ID            int64         `json:"id"`
	RequestID     *int64        `json:"request_id"` // nil для прямого бронирования
	MentorID      int64         `json:"mentor_id"`
	MentorName    string        `json:"mentor_name"`
	StudentID     int64         `json:"student_id"`
	StudentName   string        `json:"student_name"`
	SessionDate   string        `json:"session_date"`
	SessionTime   string        `json:"session_time"`
	SessionType   SessionType   `json:"session_type"`
	Notes         string        `json:"notes"`
	Price         int64         `json:"price"` // снапшот цены ментора, не пересчитывается
	PaymentID     *string       `json:"payment_id"`
	Status        SessionStatus `json:"status"`
	Rating        *int          `json:"rating"`
	Feedback      *string       `json:"feedback"`
	RescheduledBy *int64        `json:"rescheduled_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// HasPayment есть ли реальный идентификатор платежа
func (s *Session) HasPayment() bool {
	return HasPayment(s.PaymentID)
}

// IsPaidConfirmed статус и оплата согласованно говорят, что занятие состоится
func (s *Session) IsPaidConfirmed() bool {
	if s.Status != SessionStatusConfirmed && s.Status != SessionStatusAccepted {
		return false
	}
	return s.HasPayment()
}

// IsParticipant является ли пользователь стороной занятия
func (s *Session) IsParticipant(userID int64) bool {
	return userID == s.StudentID || userID == s.MentorID
}

// IsTerminal дальнейшие изменения запрещены
func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

// HasPayment проверяет идентификатор платежа: не nil, не пустой и не PaymentPending
func HasPayment(paymentID *string) bool {
	return paymentID != nil && *paymentID != "" && *paymentID != PaymentPending
}
