package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// RecordEvent appends a lifecycle event to the audit trail. The
// (job_id, action, occurred_at) key makes redelivered events no-ops.
func (s *Storage) RecordEvent(ctx context.Context, event domain.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	query := `
		INSERT INTO job_events (id, job_id, tenant_id, action, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id, action, occurred_at) DO NOTHING
	`

	_, err = s.db.ExecContext(ctx, query,
		uuid.New().String(),
		event.JobID,
		event.TenantID,
		event.Action,
		payload,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// RefreshCustomerStats recomputes the customer's denormalized job
// statistics from the jobs table. The full recompute keeps the write
// idempotent regardless of event ordering.
func (s *Storage) RefreshCustomerStats(ctx context.Context, tenantID, customerID string) error {
	query := `
		UPDATE customers c
		SET total_jobs = stats.total_jobs,
		    completed_jobs = stats.completed_jobs,
		    total_revenue = stats.total_revenue,
		    last_job_at = stats.last_job_at,
		    updated_at = NOW()
		FROM (
			SELECT
				COUNT(*) AS total_jobs,
				COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed_jobs,
				COALESCE(SUM((profitability->>'total_price')::numeric) FILTER (WHERE status = 'COMPLETED'), 0) AS total_revenue,
				MAX(scheduled_date) AS last_job_at
			FROM jobs
			WHERE customer_id = $1 AND tenant_id = $2
		) AS stats
		WHERE c.id = $1 AND c.tenant_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, customerID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to refresh customer stats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Customer may have been deleted since the event was published;
		// nothing to refresh.
		s.logger.Warn("Customer stats refresh - no rows affected",
			slog.String("customer_id", customerID),
			slog.String("tenant_id", tenantID),
		)
	}

	return nil
}
