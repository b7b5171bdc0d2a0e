package notify

import (
	"fmt"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
)

// Тексты уведомлений. Форматирование держим здесь, сервисы передают только модели.

func RequestCreated(req *model.SessionRequest) string {
	return fmt.Sprintf("📩 Новая заявка от %s\n📅 %s\n🎥 %s",
		req.StudentName, FormatSlot(req.SessionDate, req.SessionTime), SessionTypeName(req.SessionType))
}

func RequestAccepted(req *model.SessionRequest, session *model.Session, currency string) string {
	return fmt.Sprintf("✅ Ментор принял заявку на %s\n💳 К оплате: %s",
		FormatSlot(req.SessionDate, req.SessionTime), FormatPrice(session.Price, currency))
}

func RequestRejected(req *model.SessionRequest) string {
	return fmt.Sprintf("🚫 Ментор отклонил заявку на %s", FormatSlot(req.SessionDate, req.SessionTime))
}

func SessionBooked(s *model.Session, currency string) string {
	return fmt.Sprintf("📅 Новое занятие с %s на %s\n💰 %s",
		s.StudentName, FormatSlot(s.SessionDate, s.SessionTime), FormatPrice(s.Price, currency))
}

func PaymentReceived(s *model.Session) string {
	if s.Status == model.SessionStatusRescheduled {
		return fmt.Sprintf("✅ Оплата получена. Новое время %s ещё ждёт подтверждения.", FormatSlot(s.SessionDate, s.SessionTime))
	}
	return fmt.Sprintf("✅ Оплата получена, занятие %s подтверждено", FormatSlot(s.SessionDate, s.SessionTime))
}

func SessionRescheduled(s *model.Session) string {
	return fmt.Sprintf("🔁 Занятие перенесено на %s. Подтвердите новое время.", FormatSlot(s.SessionDate, s.SessionTime))
}

func RescheduleAcknowledged(s *model.Session) string {
	return fmt.Sprintf("👌 Новое время %s подтверждено", FormatSlot(s.SessionDate, s.SessionTime))
}

func SessionCancelled(s *model.Session) string {
	return fmt.Sprintf("❌ Занятие %s отменено", FormatSlot(s.SessionDate, s.SessionTime))
}

func UnpaidSessionCancelled(s *model.Session) string {
	return fmt.Sprintf("⌛ Занятие %s отменено: оплата не поступила вовремя", FormatSlot(s.SessionDate, s.SessionTime))
}

func SessionRated(s *model.Session) string {
	return fmt.Sprintf("⭐ Студент %s оценил занятие на %d/5", s.StudentName, *s.Rating)
}
