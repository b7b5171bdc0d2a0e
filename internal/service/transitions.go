package service

import "github.com/Freeeeeet/mentor_sessions/internal/model"

// SessionEvent событие, меняющее статус сессии
type SessionEvent string

const (
	EvPaymentRecorded        SessionEvent = "payment_recorded"
	EvRescheduled            SessionEvent = "rescheduled"
	EvRescheduleAcknowledged SessionEvent = "reschedule_acknowledged"
	EvCompleted              SessionEvent = "completed"
	EvCancelled              SessionEvent = "cancelled"
)

type transitionKey struct {
	From  model.SessionStatus
	Event SessionEvent
}

// Разрешённые переходы. Для EvRescheduleAcknowledged целевой статус зависит от оплаты
// и выбирается в сервисе, здесь отмечено только, что переход возможен.
// Оплата перенесённой сессии не подтверждает новое время: его подтверждает вторая сторона.
// Из completed и cancelled переходов нет.
var sessionTransitions = map[transitionKey]model.SessionStatus{
	{model.SessionStatusPending, EvPaymentRecorded}:     model.SessionStatusConfirmed,
	{model.SessionStatusRescheduled, EvPaymentRecorded}: model.SessionStatusRescheduled,
	{model.SessionStatusConfirmed, EvPaymentRecorded}:   model.SessionStatusConfirmed,
	{model.SessionStatusAccepted, EvPaymentRecorded}:    model.SessionStatusConfirmed,

	{model.SessionStatusPending, EvRescheduled}:     model.SessionStatusRescheduled,
	{model.SessionStatusConfirmed, EvRescheduled}:   model.SessionStatusRescheduled,
	{model.SessionStatusAccepted, EvRescheduled}:    model.SessionStatusRescheduled,
	{model.SessionStatusRescheduled, EvRescheduled}: model.SessionStatusRescheduled,

	{model.SessionStatusRescheduled, EvRescheduleAcknowledged}: model.SessionStatusConfirmed,

	{model.SessionStatusConfirmed, EvCompleted}: model.SessionStatusCompleted,
	{model.SessionStatusAccepted, EvCompleted}:  model.SessionStatusCompleted,

	{model.SessionStatusPending, EvCancelled}:     model.SessionStatusCancelled,
	{model.SessionStatusConfirmed, EvCancelled}:   model.SessionStatusCancelled,
	{model.SessionStatusAccepted, EvCancelled}:    model.SessionStatusCancelled,
	{model.SessionStatusRescheduled, EvCancelled}: model.SessionStatusCancelled,
}

// nextSessionStatus возвращает статус после события или InvalidOperation
func nextSessionStatus(from model.SessionStatus, ev SessionEvent) (model.SessionStatus, error) {
	to, ok := sessionTransitions[transitionKey{From: from, Event: ev}]
	if !ok {
		return "", invalidOperation("session in status %q does not allow %s", from, ev)
	}
	return to, nil
}
