// Package common defines shared constants and sentinel errors used across
// client and server layers of the help-desk credential service. Callers
// should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Account lifecycle errors.
	ErrConflict           = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrUnverified         = errors.New("account is not verified")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Verification errors.
	ErrInvalidToken = errors.New("invalid or expired verification link")
	ErrInvalidOTP   = errors.New("invalid OTP")
	ErrExpiredOTP   = errors.New("OTP has expired")

	// Throttling.
	ErrTooManyAttempts = errors.New("too many attempts, try again later")

	// Session token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidSessionToken = errors.New("invalid session token")
)

// Kind is the closed set of error categories a caller of the account
// service has to handle.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindInvalidToken
	KindInvalidOTP
	KindExpiredOTP
	KindAlreadyVerified
	KindNotFound
	KindInvalidCredentials
	KindUnverified
	KindTooManyAttempts
	KindInternal
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrConflict, KindConflict},
	{ErrInvalidToken, KindInvalidToken},
	{ErrInvalidOTP, KindInvalidOTP},
	{ErrExpiredOTP, KindExpiredOTP},
	{ErrAlreadyVerified, KindAlreadyVerified},
	{ErrAccountNotFound, KindNotFound},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrUnverified, KindUnverified},
	{ErrTooManyAttempts, KindTooManyAttempts},
	{ErrorInternal, KindInternal},
}

// KindOf classifies err. Errors outside the taxonomy are reported as
// KindUnknown and must be treated as internal failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Code returns a stable machine-readable name for the kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidToken:
		return "INVALID_TOKEN"
	case KindInvalidOTP:
		return "INVALID_OTP"
	case KindExpiredOTP:
		return "EXPIRED_OTP"
	case KindAlreadyVerified:
		return "ALREADY_VERIFIED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case KindUnverified:
		return "UNVERIFIED_ACCOUNT"
	case KindTooManyAttempts:
		return "TOO_MANY_ATTEMPTS"
	default:
		return "INTERNAL"
	}
}
