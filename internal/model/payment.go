package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const orderIDPrefix = "MS"

// CheckoutRequest данные для запуска оплаты во внешнем шлюзе
type CheckoutRequest struct {
	OrderID      string
	SessionID    int64
	Amount       int64
	ItemName     string
	CustomerName string
}

// Checkout ответ шлюза: токен и ссылка на страницу оплаты
type Checkout struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// NewOrderID формирует уникальный номер заказа вида MS-<sessionID>-<суффикс>.
// Шлюз требует уникальности, поэтому повторный checkout получает новый суффикс.
func NewOrderID(sessionID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", orderIDPrefix, sessionID, suffix)
}

// SessionIDFromOrderID достаёт ID сессии из номера заказа
func SessionIDFromOrderID(orderID string) (int64, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) != 3 || parts[0] != orderIDPrefix {
		return 0, fmt.Errorf("malformed order id %q", orderID)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed order id %q", orderID)
	}
	return id, nil
}
