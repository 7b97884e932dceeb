package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/societypro/admin-service/internal/models"
)

// ErrSocietyNotFound is returned when a society id matches no row.
var ErrSocietyNotFound = errors.New("society not found")

const societyColumns = `id, name, address, contact_number, admin_name, admin_email, status, created_at`

// CreateSociety inserts a pending society registration.
func (db *Database) CreateSociety(ctx context.Context, req models.RegisterSocietyRequest) (*models.Society, error) {
	var s models.Society
	query := `
		INSERT INTO societies (name, address, contact_number, admin_name, admin_email, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING ` + societyColumns

	err := db.Pool.QueryRow(ctx, query, req.Name, req.Address, req.ContactNumber, req.AdminName, req.AdminEmail).Scan(
		&s.ID, &s.Name, &s.Address, &s.ContactNumber, &s.AdminName, &s.AdminEmail, &s.Status, &s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create society: %w", err)
	}
	return &s, nil
}

// GetSociety retrieves a society by id.
func (db *Database) GetSociety(ctx context.Context, id string) (*models.Society, error) {
	var s models.Society
	query := `SELECT ` + societyColumns + ` FROM societies WHERE id = $1`

	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Address, &s.ContactNumber, &s.AdminName, &s.AdminEmail, &s.Status, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSocietyNotFound
		}
		return nil, fmt.Errorf("failed to get society: %w", err)
	}
	return &s, nil
}

// ListSocieties returns societies, optionally filtered by status.
func (db *Database) ListSocieties(ctx context.Context, status models.SocietyStatus) ([]models.Society, error) {
	query := `SELECT ` + societyColumns + ` FROM societies`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list societies: %w", err)
	}
	defer rows.Close()

	var societies []models.Society
	for rows.Next() {
		var s models.Society
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.ContactNumber, &s.AdminName, &s.AdminEmail, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan society: %w", err)
		}
		societies = append(societies, s)
	}
	return societies, rows.Err()
}

// UpdateSocietyStatus transitions a society's lifecycle status.
func (db *Database) UpdateSocietyStatus(ctx context.Context, id string, status models.SocietyStatus) error {
	result, err := db.Pool.Exec(ctx, `UPDATE societies SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update society status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSocietyNotFound
	}
	return nil
}

// DeleteSociety removes the society row. The ON DELETE CASCADE on the request
// tables cleans those up; profiles and identities are the caller's problem.
func (db *Database) DeleteSociety(ctx context.Context, id string) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM societies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete society: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSocietyNotFound
	}
	return nil
}
