package handlers

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/mentor_sessions/internal/payment"
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

type PaymentRecorder interface {
	OnPaymentSucceeded(ctx context.Context, sessionID int64, transactionID string) error
}

// PaymentHandlers уведомления платёжного шлюза
type PaymentHandlers struct {
	recorder  PaymentRecorder
	serverKey string
	logger    *zap.Logger
}

func NewPaymentHandlers(recorder PaymentRecorder, serverKey string, logger *zap.Logger) *PaymentHandlers {
	return &PaymentHandlers{recorder: recorder, serverKey: serverKey, logger: logger}
}

// MidtransNotification POST /payments/midtrans/notification.
// На необрабатываемые уведомления отвечаем 200, иначе Midtrans будет повторять их.
func (h *PaymentHandlers) MidtransNotification(w http.ResponseWriter, r *http.Request) {
	var notif payment.Notification
	if !decodeLenientJSON(w, r, &notif) {
		return
	}

	if err := notif.Verify(h.serverKey); err != nil {
		h.logger.Warn("Rejected payment notification",
			zap.String("order_id", notif.OrderID),
			zap.Error(err),
		)
		writeError(w, http.StatusForbidden, "invalid signature")
		return
	}

	if !notif.Succeeded() {
		h.logger.Info("Payment notification ignored",
			zap.String("order_id", notif.OrderID),
			zap.String("transaction_status", notif.TransactionStatus),
			zap.String("fraud_status", notif.FraudStatus),
		)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	sessionID, err := notif.SessionID()
	if err != nil {
		h.logger.Warn("Payment notification for unknown order", zap.String("order_id", notif.OrderID), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	err = h.recorder.OnPaymentSucceeded(r.Context(), sessionID, notif.TransactionID)
	switch service.KindOf(err) {
	case "":
		if err != nil {
			writeServiceError(w, h.logger, r, err)
			return
		}
	case service.KindNotFound, service.KindInvalidOperation, service.KindValidation:
		// Повтор ничего не изменит: деньги списаны, но сессия их не примет. Нужен ручной возврат.
		h.logger.Error("Payment could not be applied to session",
			zap.Int64("session_id", sessionID),
			zap.String("order_id", notif.OrderID),
			zap.String("transaction_id", notif.TransactionID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	default:
		writeServiceError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
