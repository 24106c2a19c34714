// Package accounts declares the server-side repository contract for
// account records and their pending verification secrets.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/helpdesk/internal/server/models"
)

// Repository persists accounts keyed by normalized email.
//
// The ForUpdate lookups lock the row and are meant to run inside a
// transaction, so that read, validation and write happen atomically.
type Repository interface {
	// Create inserts a new account. It returns common.ErrorAlreadyExists
	// when the email is taken.
	Create(ctx context.Context, account *models.Account) error

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error)
	GetByVerificationTokenForUpdate(ctx context.Context, token string) (*models.Account, error)

	// Update writes the mutable fields (verification state and secrets).
	Update(ctx context.Context, account *models.Account) error
}
