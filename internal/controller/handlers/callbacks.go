package handlers

import (
	"context"

	"github.com/Freeeeeet/mentor_sessions/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleBookingsPage листает список /mybookings
func (h *Handlers) HandleBookingsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	msg := callback.Message.Message
	if msg == nil {
		h.answerCallback(ctx, b, callback.ID, "Сообщение устарело, вызовите /mybookings")
		return
	}

	page, err := keyboard.ParsePage(bookingsPagePrefix, callback.Data)
	if err != nil {
		h.logger.Warn("Invalid bookings page callback", zap.String("data", callback.Data), zap.Error(err))
		h.answerCallback(ctx, b, callback.ID, "")
		return
	}

	user, err := h.queryService.UserByTelegramID(ctx, callback.From.ID)
	if err != nil || user == nil {
		if err != nil {
			h.logger.Error("Failed to get user", zap.Int64("telegram_id", callback.From.ID), zap.Error(err))
		}
		h.answerCallback(ctx, b, callback.ID, "❌ Аккаунт не найден")
		return
	}

	bookings, err := h.queryService.ListBookingsForViewer(ctx, user.ID, user.Role())
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Int64("user_id", user.ID), zap.Error(err))
		h.answerCallback(ctx, b, callback.ID, "❌ Не удалось загрузить занятия")
		return
	}

	text, totalPages := FormatBookings(bookings, user.Role(), h.currency, page)
	page = clampPage(page, totalPages)

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
	}
	if markup := keyboard.NewBuilder().AddPagination(bookingsPagePrefix, page, totalPages).Build(); markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := b.EditMessageText(ctx, params); err != nil {
		h.logger.Warn("Failed to edit bookings message", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
	h.answerCallback(ctx, b, callback.ID, "")
}

// HandleNoop закрывает "часики" на кнопке-индикаторе
func (h *Handlers) HandleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		h.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	}
}

func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}
