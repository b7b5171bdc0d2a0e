package controller

import (
	"context"

	"github.com/Freeeeeet/mentor_sessions/internal/controller/handlers"
	"github.com/Freeeeeet/mentor_sessions/internal/controller/keyboard"
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	queryService *service.BookingQueryService,
	currency string,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: handlers.NewHandlers(queryService, currency, logger),
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.handlers.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/dashboard", bot.MatchTypeExact, c.handlers.HandleDashboard)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "bookings_page:", bot.MatchTypePrefix, c.handlers.HandleBookingsPage)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, keyboard.Noop, bot.MatchTypeExact, c.handlers.HandleNoop)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Проверить привязку аккаунта"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "mybookings", Description: "📅 Мои занятия"},
		{Command: "dashboard", Description: "⏳ Ожидающие заявки (ментор)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
