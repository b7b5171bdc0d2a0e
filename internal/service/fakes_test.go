package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/mentor_sessions/internal/model"
	"github.com/Freeeeeet/mentor_sessions/internal/repository"
	"go.uber.org/zap/zaptest"
)

// memStore хранилище в памяти с транзакциями через снапшот
type memStore struct {
	txMu sync.Mutex

	mu            sync.Mutex
	users         map[int64]*model.User
	requests      map[int64]*model.SessionRequest
	sessions      map[int64]*model.Session
	nextRequestID int64
	nextSessionID int64
	clock         time.Time

	blockUserLookups bool  // GetByID ждёт отмены контекста
	incrementErr     error // ошибка IncrementSessionsCompleted
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*model.User),
		requests: make(map[int64]*model.SessionRequest),
		sessions: make(map[int64]*model.Session),
		clock:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) Repos() Repositories {
	return Repositories{
		Users:    memUsers{m},
		Requests: memRequests{m},
		Sessions: memSessions{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.snapshot()
	if err := fn(ctx, m.Repos()); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	users         map[int64]model.User
	requests      map[int64]model.SessionRequest
	sessions      map[int64]model.Session
	nextRequestID int64
	nextSessionID int64
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := memSnapshot{
		users:         make(map[int64]model.User, len(m.users)),
		requests:      make(map[int64]model.SessionRequest, len(m.requests)),
		sessions:      make(map[int64]model.Session, len(m.sessions)),
		nextRequestID: m.nextRequestID,
		nextSessionID: m.nextSessionID,
	}
	for id, u := range m.users {
		s.users[id] = *u
	}
	for id, r := range m.requests {
		s.requests[id] = *r
	}
	for id, sess := range m.sessions {
		s.sessions[id] = *sess
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[int64]*model.User, len(s.users))
	for id, u := range s.users {
		u := u
		m.users[id] = &u
	}
	m.requests = make(map[int64]*model.SessionRequest, len(s.requests))
	for id, r := range s.requests {
		r := r
		m.requests[id] = &r
	}
	m.sessions = make(map[int64]*model.Session, len(s.sessions))
	for id, sess := range s.sessions {
		sess := sess
		m.sessions[id] = &sess
	}
	m.nextRequestID = s.nextRequestID
	m.nextSessionID = s.nextSessionID
}

// tick монотонное время создания, чтобы сортировка была детерминированной
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addUser(u model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.CreatedAt = m.tick()
	m.users[u.ID] = &u
	return &u
}

func (m *memStore) user(id int64) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) request(id int64) model.SessionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.requests[id]
}

func (m *memStore) session(id int64) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

func (m *memStore) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// putSession кладёт сессию как есть, минуя сервис
func (m *memStore) putSession(s model.Session) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSessionID++
	s.ID = m.nextSessionID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.tick()
	}
	s.UpdatedAt = s.CreatedAt
	m.sessions[s.ID] = &s
	cp := s
	return &cp
}

// putRequest кладёт заявку как есть, минуя сервис
func (m *memStore) putRequest(r model.SessionRequest) *model.SessionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRequestID++
	r.ID = m.nextRequestID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.tick()
	}
	r.UpdatedAt = r.CreatedAt
	m.requests[r.ID] = &r
	cp := r
	return &cp
}

type memUsers struct{ m *memStore }

func (r memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.m.mu.Lock()
	block := r.m.blockUserLookups
	r.m.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, fmt.Errorf("get user by id: %w", ctx.Err())
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) IncrementSessionsCompleted(_ context.Context, mentorID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.incrementErr != nil {
		return r.m.incrementErr
	}
	u, ok := r.m.users[mentorID]
	if !ok || !u.IsMentor {
		return repository.ErrUserNotFound
	}
	u.SessionsCompleted++
	return nil
}

type memRequests struct{ m *memStore }

func (r memRequests) Create(_ context.Context, req *model.SessionRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextRequestID++
	req.ID = r.m.nextRequestID
	req.CreatedAt = r.m.tick()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	r.m.requests[req.ID] = &cp
	return nil
}

func (r memRequests) GetByID(_ context.Context, id int64) (*model.SessionRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r memRequests) UpdateStatusIfCurrent(_ context.Context, id int64, current, next model.RequestStatus) (*model.SessionRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok || req.Status != current {
		return nil, repository.ErrStaleState
	}
	req.Status = next
	req.UpdatedAt = r.m.tick()
	cp := *req
	return &cp, nil
}

func (r memRequests) ListByMentor(_ context.Context, mentorID int64) ([]*model.SessionRequest, error) {
	return r.filter(func(req *model.SessionRequest) bool { return req.MentorID == mentorID }, 0), nil
}

func (r memRequests) ListByStudent(_ context.Context, studentID int64) ([]*model.SessionRequest, error) {
	return r.filter(func(req *model.SessionRequest) bool { return req.StudentID == studentID }, 0), nil
}

func (r memRequests) ListPendingByMentor(_ context.Context, mentorID int64, limit int) ([]*model.SessionRequest, error) {
	return r.filter(func(req *model.SessionRequest) bool {
		return req.MentorID == mentorID && req.Status == model.RequestStatusPending
	}, limit), nil
}

func (r memRequests) CountPendingByMentor(ctx context.Context, mentorID int64) (int, error) {
	pending, _ := r.ListPendingByMentor(ctx, mentorID, 0)
	return len(pending), nil
}

func (r memRequests) filter(keep func(*model.SessionRequest) bool, limit int) []*model.SessionRequest {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*model.SessionRequest
	for _, req := range r.m.requests {
		if keep(req) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, s *model.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s.RequestID != nil {
		for _, existing := range r.m.sessions {
			if existing.RequestID != nil && *existing.RequestID == *s.RequestID {
				return repository.ErrDuplicate
			}
		}
	}
	r.m.nextSessionID++
	s.ID = r.m.nextSessionID
	s.CreatedAt = r.m.tick()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.m.sessions[s.ID] = &cp
	return nil
}

func (r memSessions) GetByID(_ context.Context, id int64) (*model.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r memSessions) GetByRequestID(_ context.Context, requestID int64) (*model.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.RequestID != nil && *s.RequestID == requestID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memSessions) Update(_ context.Context, s *model.Session, expected model.SessionStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	current, ok := r.m.sessions[s.ID]
	if !ok || current.Status != expected {
		return repository.ErrStaleState
	}
	s.UpdatedAt = r.m.tick()
	cp := *s
	r.m.sessions[s.ID] = &cp
	return nil
}

func (r memSessions) ListByMentor(_ context.Context, mentorID int64) ([]*model.Session, error) {
	return r.filter(func(s *model.Session) bool { return s.MentorID == mentorID }), nil
}

func (r memSessions) ListByStudent(_ context.Context, studentID int64) ([]*model.Session, error) {
	return r.filter(func(s *model.Session) bool { return s.StudentID == studentID }), nil
}

func (r memSessions) ListUnpaidCreatedBefore(_ context.Context, before time.Time, limit int) ([]*model.Session, error) {
	out := r.filter(func(s *model.Session) bool {
		return s.Status == model.SessionStatusPending && !s.HasPayment() && s.CreatedAt.Before(before)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memSessions) filter(keep func(*model.Session) bool) []*model.Session {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*model.Session
	for _, s := range r.m.sessions {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type sentNotification struct {
	UserID  int64
	Message string
}

// recordingNotifier запоминает отправленные уведомления
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Message: message})
}

func (n *recordingNotifier) recipients() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]int64, 0, len(n.sent))
	for _, s := range n.sent {
		ids = append(ids, s.UserID)
	}
	return ids
}

// memLocker блокировки в памяти
type memLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	err    error
	leased []string
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	l.leased = append(l.leased, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, true, nil
}

func (l *memLocker) hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = true
}

func (l *memLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

// stubGateway шлюз, возвращающий заданный ответ
type stubGateway struct {
	mu       sync.Mutex
	requests []model.CheckoutRequest
	err      error
	block    bool
}

func (g *stubGateway) CreateCheckout(ctx context.Context, req model.CheckoutRequest) (*model.Checkout, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	block, err := g.block, g.err
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &model.Checkout{
		OrderID:     req.OrderID,
		Token:       "snap-token",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token",
	}, nil
}

const (
	studentID      int64 = 1
	mentorID       int64 = 2
	otherStudentID int64 = 3
	freeMentorID   int64 = 4
	outsiderID     int64 = 5
	mentorPrice    int64 = 15000000
)

type testEnv struct {
	store     *memStore
	notifier  *recordingNotifier
	locker    *memLocker
	gateway   *stubGateway
	lifecycle *LifecycleService
	requests  *RequestService
	queries   *BookingQueryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store := newMemStore()
	notifier := &recordingNotifier{}
	locker := newMemLocker()
	gateway := &stubGateway{}

	tg := int64(1001)
	store.addUser(model.User{ID: studentID, TelegramID: &tg, Username: "anna", FirstName: "Anna", LastName: "Petrova"})
	store.addUser(model.User{ID: mentorID, Username: "boris", FirstName: "Boris", IsMentor: true, PricePerSession: mentorPrice})
	store.addUser(model.User{ID: otherStudentID, Username: "carl"})
	store.addUser(model.User{ID: freeMentorID, Username: "dina", IsMentor: true})
	store.addUser(model.User{ID: outsiderID, Username: "eve"})

	cfg := EngineConfig{DependencyTimeout: 200 * time.Millisecond, Currency: "IDR"}
	projector := NewStatusProjector(logger)
	lifecycle := NewLifecycleService(store, projector, gateway, locker, notifier, cfg, logger)

	return &testEnv{
		store:     store,
		notifier:  notifier,
		locker:    locker,
		gateway:   gateway,
		lifecycle: lifecycle,
		requests:  NewRequestService(store, lifecycle, projector, notifier, logger),
		queries:   NewBookingQueryService(store, projector, cfg, logger),
	}
}

func validRequestInput(mentor int64) CreateRequestInput {
	return CreateRequestInput{
		MentorID:    mentor,
		SessionDate: "2026-03-10",
		SessionTime: "15:30",
		SessionType: model.SessionTypeVideo,
		Notes:       "Go concurrency review",
	}
}

// acceptedSession создаёт заявку, принимает её и возвращает порождённую сессию
func (e *testEnv) acceptedSession(t *testing.T) *model.Session {
	t.Helper()
	ctx := context.Background()

	req, err := e.requests.Create(ctx, studentID, validRequestInput(mentorID))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	decision, err := e.requests.UpdateStatus(ctx, req.ID, mentorID, "accepted")
	if err != nil {
		t.Fatalf("accept request: %v", err)
	}
	return decision.Session
}

// paidSession сессия в статусе confirmed с оплатой
func (e *testEnv) paidSession(t *testing.T) *model.Session {
	t.Helper()
	session := e.acceptedSession(t)
	paid, err := e.lifecycle.RecordPayment(context.Background(), session.ID, "txn-"+fmt.Sprint(session.ID))
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return paid
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
