package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPassword is returned when a password does not match the
// stored access hash.
var ErrInvalidPassword = errors.New("invalid password")

// MinPasswordLength is the minimum accepted access password length.
const MinPasswordLength = 6

// SetAccessPassword hashes and stores the access password. The access
// table holds a single row; setting a password replaces any previous one.
func (d *Database) SetAccessPassword(ctx context.Context, password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	start := time.Now()
	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(execCtx, `
		INSERT INTO access (id, password_hash, updated_at)
		VALUES (1, ?, strftime('%s','now'))
		ON CONFLICT(id) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at    = excluded.updated_at`, string(hash))
	recordQuery("set_access", start, err)
	if err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

// ClearAccessPassword removes the access password, disabling the gate.
func (d *Database) ClearAccessPassword(ctx context.Context) error {
	start := time.Now()
	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(execCtx, "DELETE FROM access WHERE id = 1")
	recordQuery("set_access", start, err)
	if err != nil {
		return fmt.Errorf("failed to clear password: %w", err)
	}
	return nil
}

// accessHash fetches the stored hash, or "" when no password is set.
func (d *Database) accessHash(ctx context.Context) (string, error) {
	start := time.Now()
	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var hash string
	err := d.db.QueryRowContext(queryCtx, "SELECT password_hash FROM access WHERE id = 1").Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_access", start, nil)
		return "", nil
	}
	recordQuery("get_access", start, err)
	if err != nil {
		return "", fmt.Errorf("failed to read access row: %w", err)
	}
	return hash, nil
}

// AccessPasswordSet reports whether an access password is configured.
func (d *Database) AccessPasswordSet(ctx context.Context) (bool, error) {
	hash, err := d.accessHash(ctx)
	if err != nil {
		return false, err
	}
	return hash != "", nil
}

// ValidateAccessPassword checks a password attempt against the stored
// hash. Returns ErrInvalidPassword on mismatch, and also when no
// password is configured (callers should gate on AccessPasswordSet
// before prompting).
func (d *Database) ValidateAccessPassword(ctx context.Context, password string) error {
	hash, err := d.accessHash(ctx)
	if err != nil {
		return err
	}
	if hash == "" {
		return ErrInvalidPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}
