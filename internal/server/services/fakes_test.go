package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/helpdesk/internal/common"
	"github.com/dmitrijs2005/helpdesk/internal/cryptox"
	"github.com/dmitrijs2005/helpdesk/internal/dbx"
	"github.com/dmitrijs2005/helpdesk/internal/notify"
	"github.com/dmitrijs2005/helpdesk/internal/server/config"
	"github.com/dmitrijs2005/helpdesk/internal/server/models"
	"github.com/dmitrijs2005/helpdesk/internal/server/repositories/accounts"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var testParams = cryptox.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeAccountsRepo is an in-memory accounts.Repository keyed by email.
// It stores copies so that callers can not mutate it behind its back.
type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account

	createErr error
	getErr    error
	updateErr error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: map[string]*models.Account{}}
}

func clone(a *models.Account) *models.Account {
	c := *a
	if a.Phone != nil {
		v := *a.Phone
		c.Phone = &v
	}
	if a.VerificationToken != nil {
		v := *a.VerificationToken
		c.VerificationToken = &v
	}
	if a.VerificationTokenExpiresAt != nil {
		v := *a.VerificationTokenExpiresAt
		c.VerificationTokenExpiresAt = &v
	}
	if a.OTP != nil {
		v := *a.OTP
		c.OTP = &v
	}
	if a.OTPExpiresAt != nil {
		v := *a.OTPExpiresAt
		c.OTPExpiresAt = &v
	}
	return &c
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.accounts[a.Email]; ok {
		return common.ErrorAlreadyExists
	}
	f.accounts[a.Email] = clone(a)
	return nil
}

func (f *fakeAccountsRepo) find(match func(a *models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.accounts {
		if match(a) {
			return clone(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.ID == id })
}

func (f *fakeAccountsRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.Email == email })
}

func (f *fakeAccountsRepo) GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	return f.GetByEmail(ctx, email)
}

func (f *fakeAccountsRepo) GetByVerificationTokenForUpdate(_ context.Context, token string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool {
		return a.VerificationToken != nil && *a.VerificationToken == token
	})
}

func (f *fakeAccountsRepo) Update(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.accounts[a.Email]; !ok {
		return common.ErrorNotFound
	}
	f.accounts[a.Email] = clone(a)
	return nil
}

// stored returns the current record for email, failing the test if absent.
func (f *fakeAccountsRepo) stored(t *testing.T, email string) *models.Account {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		t.Fatalf("no account stored for %q", email)
	}
	return clone(a)
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository      { return m.a }

type fakeLimiter struct {
	allow  bool
	err    error
	keys   []string
	resets []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	l.resets = append(l.resets, key)
	return l.err
}

type fakeRecorder struct {
	mu            sync.Mutex
	events        []string
	notifications []string
}

func (r *fakeRecorder) AccountEvent(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, op+":"+outcome)
}

func (r *fakeRecorder) Notification(channel, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, channel+":"+status)
}

// syncDispatcher runs jobs before Submit returns, so tests can inspect the outbox.
type syncDispatcher struct{}

func (syncDispatcher) Submit(_ string, fn func(context.Context) error) bool {
	_ = fn(context.Background())
	return true
}

type rejectingDispatcher struct{}

func (rejectingDispatcher) Submit(string, func(context.Context) error) bool { return false }

type env struct {
	svc      *AccountService
	repo     *fakeAccountsRepo
	mock     sqlmock.Sqlmock
	outbox   *notify.MemorySender
	recorder *fakeRecorder
	limiter  *fakeLimiter
	now      time.Time
}

func (e *env) advance(d time.Duration) { e.now = e.now.Add(d) }

func newEnv(t *testing.T, opts ...func(*Deps)) *env {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.FrontendBaseURL = "https://helpdesk.example/"

	e := &env{
		repo:     newFakeAccountsRepo(),
		mock:     mock,
		outbox:   notify.NewMemorySender(),
		recorder: &fakeRecorder{},
		limiter:  &fakeLimiter{allow: true},
		now:      fixedNow,
	}

	deps := Deps{
		Hasher:   cryptox.NewPasswordHasher(testParams),
		Notifier:   notify.New(e.outbox, e.outbox),
		Dispatcher: syncDispatcher{},
		Limiter:    e.limiter,
		Metrics:    e.recorder,
	}
	for _, o := range opts {
		o(&deps)
	}

	svc, err := NewAccountService(db, &fakeRepoManager{a: e.repo}, cfg, deps)
	if err != nil {
		t.Fatalf("NewAccountService error: %v", err)
	}

	svc.NowFunc = func() time.Time { return e.now }
	e.svc = svc
	return e
}

func (e *env) register(t *testing.T, email string) *RegistrationResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    email,
		Password: "Secret123",
		Phone:    "98765 43210",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return res
}

func (e *env) expectTx(commit bool) {
	e.mock.ExpectBegin()
	if commit {
		e.mock.ExpectCommit()
	} else {
		e.mock.ExpectRollback()
	}
}

func tokenFromURL(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
