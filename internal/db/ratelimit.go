package db

import (
	"context"
	"fmt"
	"time"
)

// CheckRequestRate reports whether the IP has exhausted its budget over the
// sliding window ending now.
func (db *Database) CheckRequestRate(ctx context.Context, ipAddress string, maxRequests int, window time.Duration) (bool, error) {
	query := `
		SELECT COALESCE(SUM(request_count), 0) AS total_requests
		FROM rate_limits
		WHERE ip_address = $1 AND window_start > now() - ($2 * interval '1 second')
	`

	var totalRequests int
	err := db.Pool.QueryRow(ctx, query, ipAddress, int(window.Seconds())).Scan(&totalRequests)
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return totalRequests >= maxRequests, nil
}

// IncrementRequestRate bumps the current minute bucket for an IP, creating it
// if absent.
func (db *Database) IncrementRequestRate(ctx context.Context, ipAddress string) error {
	updateQuery := `
		UPDATE rate_limits
		SET request_count = request_count + 1
		WHERE ip_address = $1 AND window_start >= date_trunc('minute', now())
	`

	result, err := db.Pool.Exec(ctx, updateQuery, ipAddress)
	if err != nil {
		return fmt.Errorf("failed to update rate limit: %w", err)
	}

	if result.RowsAffected() == 0 {
		insertQuery := `
			INSERT INTO rate_limits (ip_address, request_count, window_start)
			VALUES ($1, 1, date_trunc('minute', now()))
		`
		if _, err := db.Pool.Exec(ctx, insertQuery, ipAddress); err != nil {
			return fmt.Errorf("failed to create rate limit record: %w", err)
		}
	}

	return nil
}

// CleanupOldRateLimits removes buckets older than 24 hours.
func (db *Database) CleanupOldRateLimits(ctx context.Context) error {
	query := `
		DELETE FROM rate_limits
		WHERE window_start < now() - interval '24 hours'
	`
	if _, err := db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to cleanup old rate limits: %w", err)
	}
	return nil
}
