package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/metrics"
)

// UserDirectory implements domain.UserDirectory backed by PostgreSQL.
type UserDirectory struct {
	pool *pgxpool.Pool
}

var _ domain.UserDirectory = (*UserDirectory)(nil)

// NewUserDirectory creates a UserDirectory from the shared pool.
func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

// LookupCompany resolves the company id for userID. A user without a
// company association yields an empty id. Unknown or inactive users
// yield domain.ErrUserNotFound.
func (d *UserDirectory) LookupCompany(ctx context.Context, userID uuid.UUID) (string, error) {
	start := time.Now()

	var companyID *int64
	err := d.pool.QueryRow(ctx, `
		SELECT company_id FROM users
		WHERE id = $1 AND is_active
	`, userID).Scan(&companyID)

	metrics.DirectoryLookupDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, pgx.ErrNoRows) {
		metrics.DirectoryLookups.WithLabelValues("not_found").Inc()
		return "", domain.ErrUserNotFound
	}
	if err != nil {
		metrics.DirectoryLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to look up company for user: %w", err)
	}

	metrics.DirectoryLookups.WithLabelValues("hit").Inc()
	if companyID == nil {
		return "", nil
	}
	return strconv.FormatInt(*companyID, 10), nil
}
