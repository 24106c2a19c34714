// Package services contains server-side business logic. This file implements
// AccountService: registration, email/OTP verification, OTP resend and login.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/common"
	"github.com/dmitrijs2005/helpdesk/internal/cryptox"
	"github.com/dmitrijs2005/helpdesk/internal/dbx"
	"github.com/dmitrijs2005/helpdesk/internal/logging"
	"github.com/dmitrijs2005/helpdesk/internal/phone"
	"github.com/dmitrijs2005/helpdesk/internal/server/auth"
	"github.com/dmitrijs2005/helpdesk/internal/server/config"
	"github.com/dmitrijs2005/helpdesk/internal/server/models"
	"github.com/dmitrijs2005/helpdesk/internal/server/ratelimit"
	"github.com/dmitrijs2005/helpdesk/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const verificationTokenBytes = 32

// Notifier delivers verification messages. Implemented by *notify.Notifier.
type Notifier interface {
	EmailEnabled() bool
	SMSEnabled() bool
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// Dispatcher runs jobs in the background. Implemented by *dispatch.Dispatcher.
type Dispatcher interface {
	Submit(name string, fn func(ctx context.Context) error) bool
}

// Recorder receives operation outcomes. Implemented by *metrics.Metrics.
type Recorder interface {
	AccountEvent(operation, outcome string)
	Notification(channel, status string)
}

// Deps are the collaborators of AccountService. Dispatcher is required so
// that notifications never run on the request path. Without a Notifier no
// messages go out; the rest fall back to no-op or default implementations.
type Deps struct {
	Hasher     *cryptox.PasswordHasher
	Notifier   Notifier
	Dispatcher Dispatcher
	Limiter    ratelimit.Limiter
	Metrics    Recorder
	Logger     logging.Logger
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

type RegistrationResult struct {
	Account         models.PublicAccount
	VerificationURL string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   models.PublicAccount
}

// AccountService implements the account lifecycle:
// Unverified (token, otp, expiry) -> Verified, by link or by OTP.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	jwtSecret          []byte
	sessionValidity    time.Duration
	otpValidity        time.Duration
	linkValidity       time.Duration
	frontendBaseURL    string
	defaultCountryCode string

	hasher     *cryptox.PasswordHasher
	notifier   Notifier
	dispatcher Dispatcher
	limiter    ratelimit.Limiter
	metrics    Recorder
	logger     logging.Logger

	// comparisonHash is verified against when no account was found,
	// so that unknown emails cost the same as wrong passwords.
	comparisonHash string

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, deps Deps) (*AccountService, error) {
	s := &AccountService{
		db:                 db,
		repomanager:        m,
		jwtSecret:          []byte(cfg.SecretKey),
		sessionValidity:    cfg.SessionValidityDuration,
		otpValidity:        cfg.OTPValidityDuration,
		linkValidity:       cfg.VerificationLinkValidityDuration,
		frontendBaseURL:    strings.TrimRight(cfg.FrontendBaseURL, "/"),
		defaultCountryCode: cfg.DefaultCountryCode,
		hasher:             deps.Hasher,
		notifier:           deps.Notifier,
		dispatcher:         deps.Dispatcher,
		limiter:            deps.Limiter,
		metrics:            deps.Metrics,
		logger:             deps.Logger,
		NowFunc:            time.Now,
	}

	if s.hasher == nil {
		s.hasher = cryptox.NewPasswordHasher(cryptox.DefaultParams)
	}
	if s.dispatcher == nil {
		return nil, errors.New("account service: dispatcher is required")
	}
	if s.limiter == nil {
		s.limiter = ratelimit.Noop{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("module", "account_service")

	hash, err := s.hasher.Hash(common.GenerateRandByteArray(32))
	if err != nil {
		return nil, err
	}
	s.comparisonHash = hash

	return s, nil
}

// Register creates an unverified account and sends the verification link
// and OTP. Notification failures never fail the registration.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (res *RegistrationResult, err error) {
	defer func() { s.record("register", err) }()

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrValidation)
	}

	role := models.RoleUser
	if r := strings.ToLower(strings.TrimSpace(in.Role)); r != "" {
		role = models.Role(r)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, in.Role)
		}
	}

	var phoneNumber *string
	if p, ok := phone.Normalize(in.Phone, s.defaultCountryCode); ok {
		phoneNumber = &p
	}

	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}
	token, err := common.MakeRandHexString(verificationTokenBytes)
	if err != nil {
		return nil, s.internal(ctx, "generate verification token", err)
	}
	otp, err := common.GenerateOTP()
	if err != nil {
		return nil, s.internal(ctx, "generate otp", err)
	}

	now := s.NowFunc().UTC()
	otpExpiresAt := now.Add(s.otpValidity)
	linkExpiresAt := now.Add(s.linkValidity)

	account := &models.Account{
		ID:                         uuid.NewString(),
		Name:                       name,
		Email:                      email,
		PasswordHash:               hash,
		Role:                       role,
		Phone:                      phoneNumber,
		VerificationToken:          &token,
		VerificationTokenExpiresAt: &linkExpiresAt,
		OTP:                        &otp,
		OTPExpiresAt:               &otpExpiresAt,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	repo := s.repomanager.Accounts(s.db)
	if err := repo.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrConflict
		}
		return nil, s.internal(ctx, "create account", err)
	}

	verificationURL := s.verificationURL(token)
	s.sendVerification(ctx, account, verificationURL, otp)

	s.logger.Info(ctx, "account registered", "account_id", account.ID, "role", string(role))

	return &RegistrationResult{Account: account.Public(), VerificationURL: verificationURL}, nil
}

// VerifyByLink verifies the account holding token. The token is single use:
// it is cleared on success, so a second call fails with ErrInvalidToken.
func (s *AccountService) VerifyByLink(ctx context.Context, token string) (err error) {
	defer func() { s.record("verify_link", err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return common.ErrInvalidToken
	}

	var accountID string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.GetByVerificationTokenForUpdate(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}

		now := s.NowFunc().UTC()
		if account.VerificationTokenExpiresAt != nil && !now.Before(*account.VerificationTokenExpiresAt) {
			return common.ErrInvalidToken
		}

		account.MarkVerified()
		account.UpdatedAt = now
		accountID = account.ID
		return repo.Update(ctx, account)
	})
	if err != nil {
		return s.classify(ctx, "verify by link", err)
	}

	s.logger.Info(ctx, "account verified", "account_id", accountID, "method", "link")
	return nil
}

// VerifyByOTP verifies the account of email with a one-time code.
// The code is checked before its expiry.
func (s *AccountService) VerifyByOTP(ctx context.Context, email, otp string) (err error) {
	defer func() { s.record("verify_otp", err) }()

	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return fmt.Errorf("%w: email and otp are required", common.ErrValidation)
	}

	if err := s.allow(ctx, "verify-otp", email); err != nil {
		return err
	}

	var accountID string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrAccountNotFound
			}
			return err
		}

		if account.IsVerified {
			return common.ErrAlreadyVerified
		}
		if account.OTP == nil || subtle.ConstantTimeCompare([]byte(*account.OTP), []byte(otp)) != 1 {
			return common.ErrInvalidOTP
		}

		now := s.NowFunc().UTC()
		if account.OTPExpiresAt == nil || !now.Before(*account.OTPExpiresAt) {
			return common.ErrExpiredOTP
		}

		account.MarkVerified()
		account.UpdatedAt = now
		accountID = account.ID
		return repo.Update(ctx, account)
	})
	if err != nil {
		return s.classify(ctx, "verify by otp", err)
	}
	s.resetAttempts(ctx, "verify-otp", email)

	s.logger.Info(ctx, "account verified", "account_id", accountID, "method", "otp")
	return nil
}

// Resend issues a fresh OTP for an unverified account and sends it again
// together with the existing verification link.
func (s *AccountService) Resend(ctx context.Context, email string) (err error) {
	defer func() { s.record("resend", err) }()

	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	if err := s.allow(ctx, "resend-otp", email); err != nil {
		return err
	}

	var (
		snapshot models.Account
		otp      string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrAccountNotFound
			}
			return err
		}
		if account.IsVerified {
			return common.ErrAlreadyVerified
		}

		otp, err = newOTP(account.OTP)
		if err != nil {
			return err
		}
		if account.VerificationToken == nil {
			token, err := common.MakeRandHexString(verificationTokenBytes)
			if err != nil {
				return err
			}
			account.VerificationToken = &token
		}

		now := s.NowFunc().UTC()
		otpExpiresAt := now.Add(s.otpValidity)
		linkExpiresAt := now.Add(s.linkValidity)

		account.OTP = &otp
		account.OTPExpiresAt = &otpExpiresAt
		account.VerificationTokenExpiresAt = &linkExpiresAt
		account.UpdatedAt = now

		if err := repo.Update(ctx, account); err != nil {
			return err
		}
		snapshot = *account
		return nil
	})
	if err != nil {
		return s.classify(ctx, "resend otp", err)
	}

	s.sendVerification(ctx, &snapshot, s.verificationURL(*snapshot.VerificationToken), otp)
	return nil
}

// Login checks the credentials of a verified account and issues a session
// token. Unknown emails and wrong passwords fail with the same error.
func (s *AccountService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer func() { s.record("login", err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	if err := s.allow(ctx, "login", email); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify([]byte(password), s.comparisonHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "get account", err)
	}

	if !account.IsVerified {
		return nil, common.ErrUnverified
	}

	ok, err := s.hasher.Verify([]byte(password), account.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "verify password", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	now := s.NowFunc().UTC()
	token, err := auth.GenerateToken(account, s.jwtSecret, now, s.sessionValidity)
	if err != nil {
		return nil, s.internal(ctx, "sign session token", err)
	}

	s.resetAttempts(ctx, "login", email)
	s.logger.Info(ctx, "account logged in", "account_id", account.ID)

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.sessionValidity),
		Account:   account.Public(),
	}, nil
}

// GetByID returns the public view of an account, for authenticated callers.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.PublicAccount, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, s.internal(ctx, "get account", err)
	}
	pub := account.Public()
	return &pub, nil
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) verificationURL(token string) string {
	return s.frontendBaseURL + "/verify-email/" + token
}

// newOTP draws a code that differs from previous.
func newOTP(previous *string) (string, error) {
	for {
		otp, err := common.GenerateOTP()
		if err != nil {
			return "", err
		}
		if previous == nil || otp != *previous {
			return otp, nil
		}
	}
}

// attemptKey scopes attempts by caller address when one is known, so one
// client can not lock another out of an account.
func attemptKey(ctx context.Context, action, email string) string {
	if client := ratelimit.ClientFromContext(ctx); client != "" {
		return action + ":" + client + ":" + email
	}
	return action + ":" + email
}

// allow consults the attempt limiter. A limiter failure lets the attempt
// through: the store remains the source of truth.
func (s *AccountService) allow(ctx context.Context, action, email string) error {
	ok, err := s.limiter.Allow(ctx, attemptKey(ctx, action, email))
	if err != nil {
		s.logger.Warn(ctx, "rate limiter unavailable", "action", action, "error", err)
		return nil
	}
	if !ok {
		return common.ErrTooManyAttempts
	}
	return nil
}

// resetAttempts clears the counter after a successful attempt, so only
// failures accumulate towards the limit.
func (s *AccountService) resetAttempts(ctx context.Context, action, email string) {
	if err := s.limiter.Reset(ctx, attemptKey(ctx, action, email)); err != nil {
		s.logger.Warn(ctx, "rate limiter reset failed", "action", action, "error", err)
	}
}

// classify keeps caller-facing errors and turns everything else into
// common.ErrorInternal after logging it.
func (s *AccountService) classify(ctx context.Context, op string, err error) error {
	if k := common.KindOf(err); k != common.KindUnknown && k != common.KindInternal {
		return err
	}
	return s.internal(ctx, op, err)
}

func (s *AccountService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "operation failed", "op", op, "error", err)
	return common.ErrorInternal
}

func (s *AccountService) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = common.KindOf(err).Code()
	}
	s.metrics.AccountEvent(operation, outcome)
}

type nopRecorder struct{}

func (nopRecorder) AccountEvent(string, string) {}
func (nopRecorder) Notification(string, string) {}
