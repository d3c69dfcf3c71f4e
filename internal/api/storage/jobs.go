package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

const jobColumns = `
	id, tenant_id, customer_id, service_type, status, scheduled_date,
	estimated_duration, actual_duration, quality_score, customer_signature,
	profitability, location, special_instructions, checklist, parent_job_id,
	created_at, updated_at
`

// jobRow mirrors the jobs table; JSONB columns are scanned as raw bytes
// and decoded into domain types.
type jobRow struct {
	ID                  string         `db:"id"`
	TenantID            string         `db:"tenant_id"`
	CustomerID          string         `db:"customer_id"`
	ServiceType         string         `db:"service_type"`
	Status              string         `db:"status"`
	ScheduledDate       time.Time      `db:"scheduled_date"`
	EstimatedDuration   int            `db:"estimated_duration"`
	ActualDuration      sql.NullInt64  `db:"actual_duration"`
	QualityScore        sql.NullInt64  `db:"quality_score"`
	CustomerSignature   sql.NullString `db:"customer_signature"`
	Profitability       []byte         `db:"profitability"`
	Location            []byte         `db:"location"`
	SpecialInstructions string         `db:"special_instructions"`
	Checklist           []byte         `db:"checklist"`
	ParentJobID         sql.NullString `db:"parent_job_id"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		ID:                  r.ID,
		TenantID:            r.TenantID,
		CustomerID:          r.CustomerID,
		ServiceType:         r.ServiceType,
		Status:              domain.JobStatus(r.Status),
		ScheduledDate:       r.ScheduledDate,
		EstimatedDuration:   r.EstimatedDuration,
		SpecialInstructions: r.SpecialInstructions,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}

	if r.ActualDuration.Valid {
		v := int(r.ActualDuration.Int64)
		job.ActualDuration = &v
	}
	if r.QualityScore.Valid {
		v := int(r.QualityScore.Int64)
		job.QualityScore = &v
	}
	if r.CustomerSignature.Valid {
		v := r.CustomerSignature.String
		job.CustomerSignature = &v
	}
	if r.ParentJobID.Valid {
		v := r.ParentJobID.String
		job.ParentJobID = &v
	}

	if len(r.Location) > 0 {
		if err := json.Unmarshal(r.Location, &job.Location); err != nil {
			return nil, fmt.Errorf("failed to decode job location: %w", err)
		}
	}
	if len(r.Checklist) > 0 {
		if err := json.Unmarshal(r.Checklist, &job.Checklist); err != nil {
			return nil, fmt.Errorf("failed to decode job checklist: %w", err)
		}
	}
	if len(r.Profitability) > 0 {
		var p domain.Profitability
		if err := json.Unmarshal(r.Profitability, &p); err != nil {
			return nil, fmt.Errorf("failed to decode job profitability: %w", err)
		}
		job.Profitability = &p
	}

	return job, nil
}

// CreateJob inserts a new job row.
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	location, err := json.Marshal(job.Location)
	if err != nil {
		return fmt.Errorf("failed to encode job location: %w", err)
	}

	checklist := job.Checklist
	if checklist == nil {
		checklist = []domain.ChecklistItem{}
	}
	checklistJSON, err := json.Marshal(checklist)
	if err != nil {
		return fmt.Errorf("failed to encode job checklist: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, tenant_id, customer_id, service_type, status, scheduled_date,
			estimated_duration, location, special_instructions, checklist,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12
		)
	`

	_, err = s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.TenantID,
		job.CustomerID,
		job.ServiceType,
		string(job.Status),
		job.ScheduledDate,
		job.EstimatedDuration,
		location,
		job.SpecialInstructions,
		checklistJSON,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob loads a job by id within the tenant scope.
func (s *Storage) GetJob(ctx context.Context, jobID, tenantID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 AND tenant_id = $2`

	var row jobRow
	err := s.db.GetContext(ctx, &row, query, jobID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain()
}

// UpdateJobStatus persists a status change together with the optional
// completion fields, atomically in one statement.
func (s *Storage) UpdateJobStatus(ctx context.Context, jobID, tenantID string, status domain.JobStatus, details *domain.CompletionDetails) error {
	var (
		actualDuration    any
		qualityScore      any
		customerSignature any
		profitability     any
	)
	if details != nil {
		if details.ActualDuration != nil {
			actualDuration = *details.ActualDuration
		}
		if details.QualityScore != nil {
			qualityScore = *details.QualityScore
		}
		if details.CustomerSignature != nil {
			customerSignature = *details.CustomerSignature
		}
		if details.Profitability != nil {
			b, err := json.Marshal(details.Profitability)
			if err != nil {
				return fmt.Errorf("failed to encode profitability: %w", err)
			}
			profitability = b
		}
	}

	query := `
		UPDATE jobs
		SET status = $1,
		    actual_duration = COALESCE($2, actual_duration),
		    quality_score = COALESCE($3, quality_score),
		    customer_signature = COALESCE($4, customer_signature),
		    profitability = COALESCE($5, profitability),
		    updated_at = $6
		WHERE id = $7 AND tenant_id = $8
	`

	res, err := s.db.ExecContext(ctx, query,
		string(status),
		actualDuration,
		qualityScore,
		customerSignature,
		profitability,
		time.Now(),
		jobID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// MarkRescheduled moves the original job to RESCHEDULED and links it to
// its replacement. The original's scheduled date is never touched.
func (s *Storage) MarkRescheduled(ctx context.Context, jobID, tenantID, newJobID string) error {
	query := `
		UPDATE jobs
		SET status = $1, parent_job_id = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5
	`

	res, err := s.db.ExecContext(ctx, query,
		string(domain.StatusRescheduled),
		newJobID,
		time.Now(),
		jobID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job rescheduled: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// DeleteJob removes a job row permanently. There is no soft delete.
func (s *Storage) DeleteJob(ctx context.Context, jobID, tenantID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND tenant_id = $2`, jobID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// ListActiveJobsInWindow returns the tenant's jobs in an active status
// whose scheduled date falls inside [from, to), optionally excluding
// one job id. Used by the scheduling-conflict check.
func (s *Storage) ListActiveJobsInWindow(ctx context.Context, tenantID string, from, to time.Time, excludeJobID string) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE tenant_id = $1
		  AND status IN ($2, $3, $4)
		  AND scheduled_date >= $5
		  AND scheduled_date < $6
	`
	args := []any{
		tenantID,
		string(domain.StatusScheduled),
		string(domain.StatusConfirmed),
		string(domain.StatusInProgress),
		from,
		to,
	}

	if excludeJobID != "" {
		query += " AND id <> $7"
		args = append(args, excludeJobID)
	}

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs in window: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	return jobs, nil
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Status     string
	CustomerID string
	DateFrom   *time.Time
	DateTo     *time.Time
	PageSize   int
	Cursor     *JobCursor
}

// JobCursor is the keyset-pagination position.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// ListJobs returns up to PageSize+1 jobs for the tenant ordered newest
// first; the extra row signals another page.
func (s *Storage) ListJobs(ctx context.Context, tenantID string, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.CustomerID != "" {
		query += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}

	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND scheduled_date >= $%d", argIdx)
		args = append(args, *filter.DateFrom)
		argIdx++
	}

	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND scheduled_date <= $%d", argIdx)
		args = append(args, *filter.DateTo)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	return jobs, nil
}

// JobInTenant reports whether a job exists within the tenant. Used by
// the realtime hub for room and event authorization.
func (s *Storage) JobInTenant(ctx context.Context, jobID, tenantID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1 AND tenant_id = $2)`,
		jobID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check job tenant: %w", err)
	}
	return exists, nil
}
