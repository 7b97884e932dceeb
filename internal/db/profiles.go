package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/societypro/admin-service/internal/models"
)

// UpsertProfile writes a profile row keyed on the identity id. Re-running for
// the same id overwrites the profile without error. Non-persistable roles are
// rejected before the write; the schema CHECK enforces the same set.
func (db *Database) UpsertProfile(ctx context.Context, profile models.Profile) error {
	if !profile.Role.Persistable() {
		return fmt.Errorf("role %q cannot be stored on a profile", profile.Role)
	}

	query := `
		INSERT INTO profiles (id, email, full_name, role, society_id, is_approved, flat_number, ownership_type, shift, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			society_id = EXCLUDED.society_id,
			is_approved = EXCLUDED.is_approved,
			flat_number = EXCLUDED.flat_number,
			ownership_type = EXCLUDED.ownership_type,
			shift = EXCLUDED.shift,
			phone_number = EXCLUDED.phone_number,
			updated_at = now()
	`

	_, err := db.Pool.Exec(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Role,
		profile.SocietyID,
		profile.IsApproved,
		profile.FlatNumber,
		profile.OwnershipType,
		profile.Shift,
		profile.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// GetProfile retrieves a profile by identity id.
func (db *Database) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	query := `
		SELECT id, email, full_name, role, society_id, is_approved, flat_number, ownership_type, shift, phone_number, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.SocietyID,
		&p.IsApproved,
		&p.FlatNumber,
		&p.OwnershipType,
		&p.Shift,
		&p.PhoneNumber,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// GetProfilesBySociety returns every profile referencing the given society.
func (db *Database) GetProfilesBySociety(ctx context.Context, societyID string) ([]models.Profile, error) {
	query := `
		SELECT id, email, full_name, role, society_id, is_approved, flat_number, ownership_type, shift, phone_number, created_at, updated_at
		FROM profiles
		WHERE society_id = $1
		ORDER BY created_at
	`

	rows, err := db.Pool.Query(ctx, query, societyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles by society: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(
			&p.ID,
			&p.Email,
			&p.FullName,
			&p.Role,
			&p.SocietyID,
			&p.IsApproved,
			&p.FlatNumber,
			&p.OwnershipType,
			&p.Shift,
			&p.PhoneNumber,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile row. Deleting a missing row is not an
// error; the lenient delete-user path relies on that.
func (db *Database) DeleteProfile(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
