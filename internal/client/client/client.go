package client

import (
	"context"
	"time"
)

// User is the public view of an account returned by the server.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	Message         string `json:"message"`
	User            User   `json:"user"`
	VerificationURL string `json:"verificationUrl"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Client is the transport-agnostic contract of the credential service API.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Me(ctx context.Context, token string) (*User, error)
	Ping(ctx context.Context) error
}

// DefaultTimeout applies when NewHTTPClient is given a zero timeout.
const DefaultTimeout = 10 * time.Second
