package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/societypro/admin-service/internal/models"
)

// Sentinel errors for identity operations. Handlers branch on these to
// implement lenient deletion and duplicate reporting.
var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrDuplicateEmail   = errors.New("an identity with this email already exists")
)

// CreateIdentity inserts a new authentication principal with a bcrypt-hashed
// credential. The email_confirmed flag is always set by the caller; there is
// no verification flow in this system.
func (db *Database) CreateIdentity(ctx context.Context, email, password string, emailConfirmed bool) (*models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var identity models.Identity
	query := `
		INSERT INTO identities (email, password_hash, email_confirmed)
		VALUES ($1, $2, $3)
		RETURNING id, email, email_confirmed, created_at, updated_at
	`

	err = db.Pool.QueryRow(ctx, query, email, string(hash), emailConfirmed).Scan(
		&identity.ID,
		&identity.Email,
		&identity.EmailConfirmed,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	return &identity, nil
}

// GetIdentityByEmail retrieves an identity for password verification. The
// hash is returned separately so it never rides on the model.
func (db *Database) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, string, error) {
	var identity models.Identity
	var passwordHash string
	query := `
		SELECT id, email, password_hash, email_confirmed, created_at, updated_at
		FROM identities
		WHERE email = $1
	`

	err := db.Pool.QueryRow(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&passwordHash,
		&identity.EmailConfirmed,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", ErrIdentityNotFound
		}
		return nil, "", fmt.Errorf("failed to get identity by email: %w", err)
	}

	return &identity, passwordHash, nil
}

// DeleteIdentity removes an authentication principal. Returns
// ErrIdentityNotFound when no row matched so callers can treat that case as
// already-deleted.
func (db *Database) DeleteIdentity(ctx context.Context, id string) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// ValidatePassword checks if the provided password matches the stored hash
func (db *Database) ValidatePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// isUniqueViolation checks if the error is a Postgres unique constraint
// violation (duplicate email)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
