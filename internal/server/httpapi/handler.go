// Package httpapi exposes the account service over HTTP/JSON.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/helpdesk/internal/common"
	"github.com/dmitrijs2005/helpdesk/internal/logging"
	"github.com/dmitrijs2005/helpdesk/internal/server/models"
	"github.com/dmitrijs2005/helpdesk/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// AccountService is the subset of *services.AccountService used by the handlers.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegistrationResult, error)
	VerifyByLink(ctx context.Context, token string) error
	VerifyByOTP(ctx context.Context, email, otp string) error
	Resend(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetByID(ctx context.Context, id string) (*models.PublicAccount, error)
}

// Pinger reports database health. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	svc    AccountService
	health Pinger
	logger logging.Logger
}

func NewHandler(svc AccountService, health Pinger, logger logging.Logger) *Handler {
	return &Handler{svc: svc, health: health, logger: logger.With("module", "httpapi")}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type registerResponse struct {
	Message         string               `json:"message"`
	User            models.PublicAccount `json:"user"`
	VerificationURL string               `json:"verificationUrl"`
}

type verifyOTPRequest struct {
	Email string     `json:"email"`
	OTP   codeString `json:"otp"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string               `json:"message"`
	Token   string               `json:"token"`
	User    models.PublicAccount `json:"user"`
}

type meResponse struct {
	User models.PublicAccount `json:"user"`
}

// codeString accepts a JSON string or number, so that clients may send
// the OTP either way.
type codeString string

func (c *codeString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = codeString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("otp must be a string or a number")
	}
	*c = codeString(n.String())
	return nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, registerResponse{
		Message:         "Registration successful. Please verify your email with the link or code we sent.",
		User:            res.Account,
		VerificationURL: res.VerificationURL,
	})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.VerifyByLink(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, messageBody{Message: "Email verified successfully. You can now log in."})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.VerifyByOTP(r.Context(), req.Email, string(req.OTP)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, messageBody{Message: "Account verified successfully. You can now log in."})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Resend(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, messageBody{Message: "A new verification code has been sent."})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: res.Token, User: res.Account})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, codeUnauthorized, unauthorizedMessage)
		return
	}
	account, err := h.svc.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			Error(w, http.StatusUnauthorized, codeUnauthorized, unauthorizedMessage)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, meResponse{User: *account})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.PingContext(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v and answers 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, common.KindValidation.Code(), "invalid request body")
		return false
	}
	return true
}
