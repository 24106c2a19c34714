package models

import "time"

// Role is the authorization role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a registered help-desk identity.
//
// An unverified account carries a verification token, an OTP and their
// expiry times. Verification clears all of them and cannot be undone.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        *string
	IsVerified   bool

	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time
	OTP                        *string
	OTPExpiresAt               *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarkVerified flips the account to verified and drops every pending secret.
func (a *Account) MarkVerified() {
	a.IsVerified = true
	a.VerificationToken = nil
	a.VerificationTokenExpiresAt = nil
	a.OTP = nil
	a.OTPExpiresAt = nil
}

// PublicAccount is the subset of Account that may leave the service.
type PublicAccount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		IsVerified: a.IsVerified,
	}
}
