package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UnpaidSessionCanceller часть движка, которую дёргает планировщик
type UnpaidSessionCanceller interface {
	CancelUnpaidSessions(ctx context.Context, olderThan time.Duration) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sessions UnpaidSessionCanceller
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт планировщик. ttl <= 0 отключает отмену неоплаченных сессий.
func NewScheduler(sessions UnpaidSessionCanceller, ttl, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if s.ttl <= 0 || s.interval <= 0 {
		s.logger.Info("Unpaid session sweeper disabled")
		close(s.done)
		return
	}

	s.logger.Info("Starting background scheduler",
		zap.Duration("unpaid_ttl", s.ttl),
		zap.Duration("interval", s.interval),
	)
	go s.runUnpaidSweepTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	<-s.done
}

// runUnpaidSweepTask периодически отменяет сессии, которые так и не оплатили
func (s *Scheduler) runUnpaidSweepTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Unpaid sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Unpaid sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	cancelled, err := s.sessions.CancelUnpaidSessions(ctx, s.ttl)
	if err != nil {
		s.logger.Error("Failed to cancel unpaid sessions", zap.Error(err))
		return
	}
	if cancelled > 0 {
		s.logger.Info("Unpaid sweep completed", zap.Int("cancelled", cancelled))
	}
}
