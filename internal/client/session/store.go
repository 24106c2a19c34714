// Package session keeps the CLI's login state in a local SQLite file so that
// a token obtained by "login" survives between runs.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/helpdesk/internal/client/migrations"
	"github.com/dmitrijs2005/helpdesk/internal/dbx"
	"github.com/dmitrijs2005/helpdesk/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyEmail = "email"
	keyToken = "token"
)

// Session is the state saved after a successful login.
type Session struct {
	Email string
	Token string
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite file at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyEmail, sess.Email); err != nil {
			return err
		}
		return set(ctx, tx, keyToken, sess.Token)
	})
}

// Load returns the stored session, or nil when nobody is logged in.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	email, err := get(ctx, s.db, keyEmail)
	if err != nil {
		return nil, err
	}
	token, err := get(ctx, s.db, keyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	return &Session{Email: email, Token: token}, nil
}

// Clear forgets the stored session.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func get(ctx context.Context, db dbx.DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}
