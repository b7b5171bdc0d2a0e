package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/repository"
	"github.com/Freeeeeet/mentor_sessions/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore граница Identity Store
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	IncrementSessionsCompleted(ctx context.Context, mentorID int64) error
}

// RequestStore журнал заявок
type RequestStore interface {
	Create(ctx context.Context, req *model.SessionRequest) error
	GetByID(ctx context.Context, id int64) (*model.SessionRequest, error)
	UpdateStatusIfCurrent(ctx context.Context, id int64, current, next model.RequestStatus) (*model.SessionRequest, error)
	ListByMentor(ctx context.Context, mentorID int64) ([]*model.SessionRequest, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.SessionRequest, error)
	ListPendingByMentor(ctx context.Context, mentorID int64, limit int) ([]*model.SessionRequest, error)
	CountPendingByMentor(ctx context.Context, mentorID int64) (int, error)
}

// SessionStore журнал сессий
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetByRequestID(ctx context.Context, requestID int64) (*model.Session, error)
	Update(ctx context.Context, s *model.Session, expected model.SessionStatus) error
	ListByMentor(ctx context.Context, mentorID int64) ([]*model.Session, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Session, error)
	ListUnpaidCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*model.Session, error)
}

// Repositories набор хранилищ, привязанный к пулу или к транзакции
type Repositories struct {
	Users    UserStore
	Requests RequestStore
	Sessions SessionStore
}

// Store даёт доступ к хранилищам вне транзакции и внутри неё
type Store interface {
	Repos() Repositories
	// WithinTx выполняет fn в одной транзакции: либо применяются все изменения, либо ни одно
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// PgStore реализация Store поверх pgxpool
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func newRepositories(db base.DBTX) Repositories {
	return Repositories{
		Users:    repository.NewUserRepository(db),
		Requests: repository.NewSessionRequestRepository(db),
		Sessions: repository.NewSessionRepository(db),
	}
}

// Repos хранилища поверх пула
func (s *PgStore) Repos() Repositories {
	return newRepositories(s.pool)
}

// WithinTx начинает транзакцию, коммитит при успехе и откатывает при ошибке
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Notifier доставляет уведомления участникам. Ошибки доставки не влияют на операцию.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string)
}

// Locker короткая распределённая блокировка по ключу. Основная гарантия всё равно
// условное обновление в БД, блокировка лишь быстро отсекает конкурентные попытки.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(ctx context.Context) error, acquired bool, err error)
}

// CheckoutGateway внешний платёжный шлюз. Списание целиком на его стороне.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, int64, string) {}

// NoopNotifier используется, когда токен бота не задан
var NoopNotifier Notifier = noopNotifier{}
