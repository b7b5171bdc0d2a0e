package notify

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const sendTimeout = 5 * time.Second

// MessageSender часть *bot.Bot, которая нужна для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup ищет пользователя, чтобы узнать его Telegram ID
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramNotifier отправляет уведомления в личные сообщения бота.
// Отправка асинхронная и не влияет на результат операции.
type TelegramNotifier struct {
	sender MessageSender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, users UserLookup, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

// Notify ставит сообщение в отправку и сразу возвращается
func (n *TelegramNotifier) Notify(ctx context.Context, userID int64, message string) {
	go n.send(context.WithoutCancel(ctx), userID, message)
}

func (n *TelegramNotifier) send(ctx context.Context, userID int64, message string) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("Failed to resolve notification recipient", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if user == nil || user.TelegramID == nil {
		n.logger.Debug("Recipient has no telegram chat", zap.Int64("user_id", userID))
		return
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   message,
	})
	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", *user.TelegramID),
			zap.Error(err),
		)
	}
}
