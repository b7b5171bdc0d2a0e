package notify

import (
	"fmt"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
)

// FormatPrice форматирует цену из минимальных единиц валюты
func FormatPrice(amount int64, currency string) string {
	if amount%100 == 0 {
		return fmt.Sprintf("%d %s", amount/100, currency)
	}
	return fmt.Sprintf("%.2f %s", float64(amount)/100, currency)
}

// FormatSlot дата и время занятия в виде 02.01.2006 15:04
func FormatSlot(date, clock string) string {
	if len(date) == len("2006-01-02") {
		date = date[8:10] + "." + date[5:7] + "." + date[0:4]
	}
	return date + " " + clock
}

var sessionTypeNames = map[model.SessionType]string{
	model.SessionTypeVideo:    "видеозвонок",
	model.SessionTypeAudio:    "аудиозвонок",
	model.SessionTypeChat:     "чат",
	model.SessionTypeInPerson: "очная встреча",
}

// SessionTypeName название формата занятия
func SessionTypeName(t model.SessionType) string {
	if name, ok := sessionTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// DisplayStatusEmoji emoji для отображаемого статуса
func DisplayStatusEmoji(status model.DisplayStatus) string {
	switch status {
	case model.DisplayCompleted:
		return "✔️"
	case model.DisplayCancelled:
		return "❌"
	case model.DisplayRejected:
		return "🚫"
	case model.DisplayPendingApproval:
		return "⏳"
	case model.DisplayRescheduled:
		return "🔁"
	case model.DisplayPaymentRequired:
		return "💳"
	case model.DisplayConfirmed:
		return "✅"
	}
	return "❓"
}

// Pluralize выбирает форму слова для числа: 1 заявка, 2 заявки, 5 заявок
func Pluralize(count int, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}
