package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/common"
	"github.com/dmitrijs2005/helpdesk/internal/dbx"
	"github.com/dmitrijs2005/helpdesk/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectColumns = `SELECT id, name, email, password_hash, role, phone, is_verified,
		 verification_token, verification_token_expires_at, otp, otp_expires_at,
		 created_at, updated_at
		 FROM accounts`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, name, email, password_hash, role, phone, is_verified,
		 verification_token, verification_token_expires_at, otp, otp_expires_at,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 `

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), nullString(a.Phone), a.IsVerified,
		nullString(a.VerificationToken), nullTime(a.VerificationTokenExpiresAt),
		nullString(a.OTP), nullTime(a.OTPExpiresAt),
		a.CreatedAt, a.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE id = $1
		 `, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE email = $1
		 `, email)
}

func (r *PostgresRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE email = $1
		 FOR UPDATE
		 `, email)
}

func (r *PostgresRepository) GetByVerificationTokenForUpdate(ctx context.Context, token string) (*models.Account, error) {
	return r.getOne(ctx, selectColumns+`
		 WHERE verification_token = $1
		 FOR UPDATE
		 `, token)
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Account) error {
	query :=
		`UPDATE accounts SET is_verified = $2,
		 verification_token = $3, verification_token_expires_at = $4,
		 otp = $5, otp_expires_at = $6, updated_at = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.IsVerified,
		nullString(a.VerificationToken), nullTime(a.VerificationTokenExpiresAt),
		nullString(a.OTP), nullTime(a.OTPExpiresAt), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		a                    models.Account
		role                 string
		phone, token, otp    sql.NullString
		tokenExpires, otpExp sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &phone, &a.IsVerified,
		&token, &tokenExpires, &otp, &otpExp,
		&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Role = models.Role(role)
	a.Phone = stringPtr(phone)
	a.VerificationToken = stringPtr(token)
	a.VerificationTokenExpiresAt = timePtr(tokenExpires)
	a.OTP = stringPtr(otp)
	a.OTPExpiresAt = timePtr(otpExp)

	return &a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
