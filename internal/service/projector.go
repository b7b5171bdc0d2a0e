package service

import (
	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

// ProjectStatus вычисляет отображаемый статус по сохранённому статусу и платежу.
// Порядок проверок важен: наличие платежа, а не одно поле status, решает, состоится ли занятие.
func ProjectStatus(status string, paymentID *string) model.DisplayStatus {
	switch status {
	case string(model.SessionStatusCompleted):
		return model.DisplayCompleted
	case string(model.SessionStatusCancelled):
		return model.DisplayCancelled
	case string(model.RequestStatusRejected):
		return model.DisplayRejected
	case string(model.SessionStatusPending):
		return model.DisplayPendingApproval
	case string(model.SessionStatusRescheduled):
		return model.DisplayRescheduled
	}

	paid := model.HasPayment(paymentID)
	if status == string(model.SessionStatusAccepted) && !paid {
		return model.DisplayPaymentRequired
	}
	if (status == string(model.SessionStatusAccepted) || status == string(model.SessionStatusConfirmed)) && paid {
		return model.DisplayConfirmed
	}

	return model.DisplayUnknown
}

// ProjectSessionStatus статус записи из журнала сессий. Сессия в pending уже одобрена
// ментором и ждёт только оплаты, поэтому без платежа она показывается как Payment Required.
func ProjectSessionStatus(status model.SessionStatus, paymentID *string) model.DisplayStatus {
	if status == model.SessionStatusPending && !model.HasPayment(paymentID) {
		return model.DisplayPaymentRequired
	}
	return ProjectStatus(string(status), paymentID)
}

// StatusProjector обёртка над ProjectStatus, которая логирует несогласованные записи
type StatusProjector struct {
	logger *zap.Logger
}

func NewStatusProjector(logger *zap.Logger) *StatusProjector {
	return &StatusProjector{logger: logger}
}

// Session статус сессии
func (p *StatusProjector) Session(s *model.Session) model.DisplayStatus {
	status := ProjectSessionStatus(s.Status, s.PaymentID)
	if status == model.DisplayUnknown {
		p.logger.Warn("Session has inconsistent status",
			zap.Int64("session_id", s.ID),
			zap.String("status", string(s.Status)),
			zap.Bool("has_payment", s.HasPayment()),
		)
	}
	return status
}

// Request статус заявки. Принятая заявка с порождённой сессией показывает статус этой сессии,
// чтобы одно занятие не выглядело по-разному в двух журналах.
func (p *StatusProjector) Request(r *model.SessionRequest, spawned *model.Session) model.DisplayStatus {
	if r.Status == model.RequestStatusAccepted && spawned != nil {
		return p.Session(spawned)
	}
	status := ProjectStatus(string(r.Status), nil)
	if status == model.DisplayUnknown {
		p.logger.Warn("Session request has inconsistent status",
			zap.Int64("request_id", r.ID),
			zap.String("status", string(r.Status)),
		)
	}
	return status
}
