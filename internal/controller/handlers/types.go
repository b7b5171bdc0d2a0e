package handlers

import (
	"github.com/Freeeeeet/mentor_sessions/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	queryService *service.BookingQueryService
	currency     string
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	queryService *service.BookingQueryService,
	currency string,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		queryService: queryService,
		currency:     currency,
		logger:       logger,
	}
}
