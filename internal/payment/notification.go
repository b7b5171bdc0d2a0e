package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
)

var ErrInvalidSignature = errors.New("invalid notification signature")

// Notification HTTP-уведомление Midtrans о статусе транзакции
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept, challenge, deny
}

// Verify проверяет подпись: SHA512(order_id + status_code + gross_amount + server_key)
func (n *Notification) Verify(serverKey string) error {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" || serverKey == "" {
		return ErrInvalidSignature
	}

	got := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// Succeeded деньги списаны: settlement, либо capture без подозрения на фрод
func (n *Notification) Succeeded() bool {
	switch n.TransactionStatus {
	case "settlement":
		return true
	case "capture":
		return n.FraudStatus == "" || n.FraudStatus == "accept"
	}
	return false
}

// SessionID ID сессии, закодированный в order_id
func (n *Notification) SessionID() (int64, error) {
	return model.SessionIDFromOrderID(n.OrderID)
}

// Signature подпись уведомления в hex
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}
