package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/societypro/admin-service/internal/models"
)

// ErrRequestNotFound is returned when a request id matches no row.
var ErrRequestNotFound = errors.New("request not found")

const residentRequestColumns = `id, full_name, email, phone_number, society_id, flat_number, ownership_type, status, created_at`
const watchmanRequestColumns = `id, full_name, email, phone_number, society_id, shift, status, created_at`

// CreateResidentRequest inserts a pending resident access request.
func (db *Database) CreateResidentRequest(ctx context.Context, req models.RegisterResidentRequest) (*models.ResidentRequest, error) {
	var r models.ResidentRequest
	query := `
		INSERT INTO resident_requests (full_name, email, phone_number, society_id, flat_number, ownership_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING ` + residentRequestColumns

	err := db.Pool.QueryRow(ctx, query, req.FullName, req.Email, req.PhoneNumber, req.SocietyID, req.FlatNumber, req.OwnershipType).Scan(
		&r.ID, &r.FullName, &r.Email, &r.PhoneNumber, &r.SocietyID, &r.FlatNumber, &r.OwnershipType, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resident request: %w", err)
	}
	return &r, nil
}

// GetResidentRequest retrieves a resident request by id.
func (db *Database) GetResidentRequest(ctx context.Context, id string) (*models.ResidentRequest, error) {
	var r models.ResidentRequest
	query := `SELECT ` + residentRequestColumns + ` FROM resident_requests WHERE id = $1`

	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.FullName, &r.Email, &r.PhoneNumber, &r.SocietyID, &r.FlatNumber, &r.OwnershipType, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get resident request: %w", err)
	}
	return &r, nil
}

// ListResidentRequests returns resident requests for a society, optionally
// filtered by status.
func (db *Database) ListResidentRequests(ctx context.Context, societyID string, status models.RequestStatus) ([]models.ResidentRequest, error) {
	query := `SELECT ` + residentRequestColumns + ` FROM resident_requests WHERE society_id = $1`
	args := []interface{}{societyID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resident requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ResidentRequest
	for rows.Next() {
		var r models.ResidentRequest
		if err := rows.Scan(&r.ID, &r.FullName, &r.Email, &r.PhoneNumber, &r.SocietyID, &r.FlatNumber, &r.OwnershipType, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resident request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// MarkResidentRequestApproved flips a resident request to approved.
func (db *Database) MarkResidentRequestApproved(ctx context.Context, id string) error {
	result, err := db.Pool.Exec(ctx, `UPDATE resident_requests SET status = 'approved' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark resident request approved: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// DeleteResidentRequestByEmail purges pending resident requests matching the
// email. Best effort; matching nothing is fine.
func (db *Database) DeleteResidentRequestByEmail(ctx context.Context, email string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM resident_requests WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete resident request by email: %w", err)
	}
	return nil
}

// CreateWatchmanRequest inserts a pending watchman access request.
func (db *Database) CreateWatchmanRequest(ctx context.Context, req models.RegisterWatchmanRequest) (*models.WatchmanRequest, error) {
	var w models.WatchmanRequest
	query := `
		INSERT INTO watchman_requests (full_name, email, phone_number, society_id, shift, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING ` + watchmanRequestColumns

	err := db.Pool.QueryRow(ctx, query, req.FullName, req.Email, req.PhoneNumber, req.SocietyID, req.Shift).Scan(
		&w.ID, &w.FullName, &w.Email, &w.PhoneNumber, &w.SocietyID, &w.Shift, &w.Status, &w.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create watchman request: %w", err)
	}
	return &w, nil
}

// GetWatchmanRequest retrieves a watchman request by id.
func (db *Database) GetWatchmanRequest(ctx context.Context, id string) (*models.WatchmanRequest, error) {
	var w models.WatchmanRequest
	query := `SELECT ` + watchmanRequestColumns + ` FROM watchman_requests WHERE id = $1`

	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.FullName, &w.Email, &w.PhoneNumber, &w.SocietyID, &w.Shift, &w.Status, &w.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get watchman request: %w", err)
	}
	return &w, nil
}

// ListWatchmanRequests returns watchman requests for a society, optionally
// filtered by status.
func (db *Database) ListWatchmanRequests(ctx context.Context, societyID string, status models.RequestStatus) ([]models.WatchmanRequest, error) {
	query := `SELECT ` + watchmanRequestColumns + ` FROM watchman_requests WHERE society_id = $1`
	args := []interface{}{societyID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchman requests: %w", err)
	}
	defer rows.Close()

	var requests []models.WatchmanRequest
	for rows.Next() {
		var w models.WatchmanRequest
		if err := rows.Scan(&w.ID, &w.FullName, &w.Email, &w.PhoneNumber, &w.SocietyID, &w.Shift, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchman request: %w", err)
		}
		requests = append(requests, w)
	}
	return requests, rows.Err()
}

// MarkWatchmanRequestApproved flips a watchman request to approved.
func (db *Database) MarkWatchmanRequestApproved(ctx context.Context, id string) error {
	result, err := db.Pool.Exec(ctx, `UPDATE watchman_requests SET status = 'approved' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark watchman request approved: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// DeleteWatchmanRequestByEmail purges pending watchman requests matching the
// email. Best effort; matching nothing is fine.
func (db *Database) DeleteWatchmanRequestByEmail(ctx context.Context, email string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM watchman_requests WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete watchman request by email: %w", err)
	}
	return nil
}
