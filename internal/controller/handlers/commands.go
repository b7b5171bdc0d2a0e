package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentor_sessions/internal/controller/keyboard"
	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	bookingsPerPage    = 10
	bookingsPagePrefix = "bookings_page"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Сюда будут приходить уведомления о заявках, оплатах и переносах занятий.\n\n"+
			"Доступные команды:\n"+
			"/mybookings - Мои занятия\n"+
			"/help - Справка",
		user.DisplayName(),
	)
	if user.IsMentor {
		welcomeText += "\n\nДля менторов:\n/dashboard - Ожидающие заявки"
	}

	h.send(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Проверить привязку аккаунта\n" +
		"/mybookings - Мои занятия и заявки\n" +
		"/dashboard - Ожидающие заявки (ментор)\n" +
		"/help - Показать эту справку\n\n" +
		"Запись, оплата и перенос занятий доступны на сайте."

	h.send(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleMyBookings показывает последние занятия пользователя в его основной роли
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	bookings, err := h.queryService.ListBookingsForViewer(ctx, user.ID, user.Role())
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Не удалось загрузить занятия. Попробуйте позже.")
		return
	}

	if len(bookings) == 0 {
		h.send(ctx, b, update.Message.Chat.ID, "📭 У вас пока нет занятий.")
		return
	}

	text, totalPages := FormatBookings(bookings, user.Role(), h.currency, 0)
	markup := keyboard.NewBuilder().AddPagination(bookingsPagePrefix, 0, totalPages).Build()
	h.sendWithKeyboard(ctx, b, update.Message.Chat.ID, text, markup)
}

// HandleDashboard показывает ментору ожидающие заявки
func (h *Handlers) HandleDashboard(ctx context.Context, b *bot.Bot, update *models.Update) {
	mentor, ok := h.requireMentor(ctx, b, update)
	if !ok {
		return
	}

	summary, err := h.queryService.GetDashboardSummary(ctx, mentor.ID)
	if err != nil {
		h.logger.Error("Failed to load dashboard", zap.Int64("mentor_id", mentor.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Не удалось загрузить заявки. Попробуйте позже.")
		return
	}

	h.send(ctx, b, update.Message.Chat.ID, FormatDashboard(summary))
}

// FormatBookings одна страница списка занятий. Номер страницы приводится к допустимому.
func FormatBookings(bookings []model.BookingView, role model.Role, currency string, page int) (string, int) {
	totalPages := keyboard.TotalPages(len(bookings), bookingsPerPage)
	page = clampPage(page, totalPages)

	from := page * bookingsPerPage
	to := min(from+bookingsPerPage, len(bookings))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 Ваши занятия (%d %s):\n", len(bookings),
		notify.Pluralize(len(bookings), "занятие", "занятия", "занятий")))

	for _, booking := range bookings[from:to] {
		sb.WriteString("\n")
		sb.WriteString(notify.DisplayStatusEmoji(booking.DisplayStatus))
		sb.WriteString(" ")

		switch booking.Kind {
		case model.BookingKindRequest:
			req := booking.Request
			sb.WriteString(fmt.Sprintf("%s, заявка, %s",
				notify.FormatSlot(req.SessionDate, req.SessionTime), booking.DisplayStatus))
			if role == model.RoleMentor {
				sb.WriteString(fmt.Sprintf(", %s", req.StudentName))
			}
		case model.BookingKindSession:
			s := booking.Session
			counterpart := s.MentorName
			if role == model.RoleMentor {
				counterpart = s.StudentName
			}
			sb.WriteString(fmt.Sprintf("%s, %s, %s, %s",
				notify.FormatSlot(s.SessionDate, s.SessionTime), counterpart,
				notify.FormatPrice(s.Price, currency), booking.DisplayStatus))
		}
	}

	return sb.String(), totalPages
}

func clampPage(page, totalPages int) int {
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// FormatDashboard сводка заявок ментора
func FormatDashboard(summary *model.DashboardSummary) string {
	if summary.PendingCount == 0 {
		return "✅ Новых заявок нет."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ Ожидают решения: %d %s\n", summary.PendingCount,
		notify.Pluralize(summary.PendingCount, "заявка", "заявки", "заявок")))
	for _, req := range summary.PendingRequests {
		sb.WriteString(fmt.Sprintf("\n• %s, %s, %s",
			notify.FormatSlot(req.SessionDate, req.SessionTime), req.StudentName, notify.SessionTypeName(req.SessionType)))
	}
	return sb.String()
}
