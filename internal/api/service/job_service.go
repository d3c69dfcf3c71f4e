package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TekupDK/tekup-sub000/internal/api/storage"
	"github.com/TekupDK/tekup-sub000/internal/domain"
)

// EventPublisher publishes lifecycle events to the event bus. Satisfied
// by the shared RabbitMQ client.
type EventPublisher interface {
	PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// Broadcaster fans out realtime events. Satisfied by the realtime hub.
type Broadcaster interface {
	ToUser(userID, event string, payload any)
	ToTenant(tenantID, event string, payload any)
}

// CreateJobInput carries the fields of a job-creation request.
type CreateJobInput struct {
	CustomerID          string
	ServiceType         string
	ScheduledDate       time.Time
	EstimatedDuration   int
	Location            domain.Location
	SpecialInstructions string
	Checklist           []domain.ChecklistItem
}

// JobService orchestrates the job lifecycle: every mutation validates
// against the transition table and conflict rule, persists through the
// store, then propagates the change as a lifecycle event, notification
// fan-out and realtime broadcast. Side effects after the primary write
// are best-effort and never roll it back.
type JobService struct {
	storage     *storage.Storage
	notifier    *NotificationService
	events      EventPublisher
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewJobService wires a JobService.
func NewJobService(st *storage.Storage, notifier *NotificationService, events EventPublisher, broadcaster Broadcaster, logger *slog.Logger) *JobService {
	return &JobService{
		storage:     st,
		notifier:    notifier,
		events:      events,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Create validates the customer and the schedule, then persists a new
// SCHEDULED job.
func (s *JobService) Create(ctx context.Context, tenantID string, input CreateJobInput) (*domain.Job, error) {
	ok, err := s.storage.CustomerInTenant(ctx, input.CustomerID, tenantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}

	if err := s.checkSchedulingConflict(ctx, tenantID, input.ScheduledDate, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	checklist := input.Checklist
	if checklist == nil {
		checklist = []domain.ChecklistItem{}
	}

	job := &domain.Job{
		ID:                  uuid.New().String(),
		TenantID:            tenantID,
		CustomerID:          input.CustomerID,
		ServiceType:         input.ServiceType,
		Status:              domain.StatusScheduled,
		ScheduledDate:       input.ScheduledDate,
		EstimatedDuration:   input.EstimatedDuration,
		Location:            input.Location,
		SpecialInstructions: input.SpecialInstructions,
		Checklist:           checklist,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.storage.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LifecycleEvent{
		Action:     domain.EventJobCreated,
		JobID:      job.ID,
		TenantID:   tenantID,
		CustomerID: job.CustomerID,
		ToStatus:   job.Status,
		OccurredAt: now,
	})

	return job, nil
}

// Get loads one job within the tenant scope.
func (s *JobService) Get(ctx context.Context, tenantID, jobID string) (*domain.Job, error) {
	return s.storage.GetJob(ctx, jobID, tenantID)
}

// List returns the tenant's jobs for the given filter.
func (s *JobService) List(ctx context.Context, tenantID string, filter storage.JobFilter) ([]domain.Job, error) {
	return s.storage.ListJobs(ctx, tenantID, filter)
}

// UpdateStatus applies one transition from the allowed table, storing
// the completion extras atomically with the status change, then emits
// exactly one lifecycle event.
func (s *JobService) UpdateStatus(ctx context.Context, tenantID, jobID string, newStatus domain.JobStatus, details *domain.CompletionDetails) (*domain.Job, error) {
	job, err := s.storage.GetJob(ctx, jobID, tenantID)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateTransition(job.Status, newStatus); err != nil {
		return nil, err
	}

	if err := s.storage.UpdateJobStatus(ctx, jobID, tenantID, newStatus, details); err != nil {
		return nil, err
	}

	previous := job.Status
	job.Status = newStatus
	if details != nil {
		if details.ActualDuration != nil {
			job.ActualDuration = details.ActualDuration
		}
		if details.QualityScore != nil {
			job.QualityScore = details.QualityScore
		}
		if details.CustomerSignature != nil {
			job.CustomerSignature = details.CustomerSignature
		}
		if details.Profitability != nil {
			job.Profitability = details.Profitability
		}
	}

	s.publishEvent(ctx, domain.LifecycleEvent{
		Action:     domain.EventJobStatusChanged,
		JobID:      job.ID,
		TenantID:   tenantID,
		CustomerID: job.CustomerID,
		FromStatus: previous,
		ToStatus:   newStatus,
		OccurredAt: time.Now(),
	})

	s.handleStatusChange(ctx, job)

	if s.broadcaster != nil {
		s.broadcaster.ToTenant(tenantID, "job:status_changed", map[string]any{
			"jobId":  job.ID,
			"status": string(newStatus),
		})
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyJobStatusChanged(ctx, tenantID, job.ID, job.CustomerID, newStatus); err != nil {
			s.logger.Error("Failed to dispatch status change notifications",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
		}
	}

	return job, nil
}

// Assign validates each team member and replaces the job's assignment
// set wholesale.
func (s *JobService) Assign(ctx context.Context, tenantID, jobID string, inputs []storage.AssignmentInput) ([]domain.JobAssignment, error) {
	job, err := s.storage.GetJob(ctx, jobID, tenantID)
	if err != nil {
		return nil, err
	}

	for _, in := range inputs {
		ok, err := s.storage.TeamMemberInTenant(ctx, in.TeamMemberID, tenantID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrTeamMemberNotFound
		}
	}

	if err := s.storage.ReplaceAssignments(ctx, jobID, inputs); err != nil {
		return nil, err
	}

	assignments, err := s.storage.GetAssignments(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LifecycleEvent{
		Action:     domain.EventJobAssigned,
		JobID:      jobID,
		TenantID:   tenantID,
		CustomerID: job.CustomerID,
		OccurredAt: time.Now(),
	})

	if s.notifier != nil {
		userIDs, err := s.storage.AssignedUserIDs(ctx, jobID)
		if err != nil {
			s.logger.Error("Failed to resolve assigned users for notification",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		} else if err := s.notifier.NotifyJobAssigned(ctx, tenantID, jobID, userIDs); err != nil {
			s.logger.Error("Failed to dispatch assignment notifications",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		}
	}

	return assignments, nil
}

// Reschedule clones the job onto a new date and retires the original.
// The original keeps its scheduled date; it moves to RESCHEDULED and
// points at the replacement through parent_job_id, preserving history
// as a linked pair.
func (s *JobService) Reschedule(ctx context.Context, tenantID, jobID string, newDate time.Time) (*domain.Job, error) {
	job, err := s.storage.GetJob(ctx, jobID, tenantID)
	if err != nil {
		return nil, err
	}

	if job.Status == domain.StatusCompleted || job.Status == domain.StatusCancelled {
		return nil, domain.ErrJobNotReschedulable
	}

	if err := s.checkSchedulingConflict(ctx, tenantID, newDate, jobID); err != nil {
		return nil, err
	}

	now := time.Now()
	newJob := &domain.Job{
		ID:                  uuid.New().String(),
		TenantID:            tenantID,
		CustomerID:          job.CustomerID,
		ServiceType:         job.ServiceType,
		Status:              domain.StatusScheduled,
		ScheduledDate:       newDate,
		EstimatedDuration:   job.EstimatedDuration,
		Location:            job.Location,
		SpecialInstructions: job.SpecialInstructions,
		Checklist:           job.Checklist,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.storage.CreateJob(ctx, newJob); err != nil {
		return nil, err
	}

	if err := s.storage.MarkRescheduled(ctx, jobID, tenantID, newJob.ID); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.LifecycleEvent{
		Action:     domain.EventJobRescheduled,
		JobID:      jobID,
		TenantID:   tenantID,
		CustomerID: job.CustomerID,
		FromStatus: job.Status,
		ToStatus:   domain.StatusRescheduled,
		NewJobID:   newJob.ID,
		OccurredAt: now,
	})

	if s.notifier != nil {
		if err := s.notifier.NotifyScheduleChanged(ctx, tenantID, jobID, job.CustomerID, job.ScheduledDate, newDate); err != nil {
			s.logger.Error("Failed to dispatch schedule change notifications",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		}
	}

	return newJob, nil
}

// Delete removes a job permanently within the tenant scope.
func (s *JobService) Delete(ctx context.Context, tenantID, jobID string) error {
	if err := s.storage.DeleteJob(ctx, jobID, tenantID); err != nil {
		return err
	}

	s.publishEvent(ctx, domain.LifecycleEvent{
		Action:     domain.EventJobDeleted,
		JobID:      jobID,
		TenantID:   tenantID,
		OccurredAt: time.Now(),
	})

	return nil
}

// checkSchedulingConflict applies the fixed 4-hour window rule: any
// active tenant job starting within four hours of the candidate, in
// either direction, is a conflict. Jobs exactly four hours away are
// not. The window deliberately ignores the job's own estimated
// duration.
func (s *JobService) checkSchedulingConflict(ctx context.Context, tenantID string, date time.Time, excludeJobID string) error {
	jobs, err := s.storage.ListActiveJobsInWindow(ctx, tenantID, date.Add(-domain.ConflictWindow), date.Add(domain.ConflictWindow), excludeJobID)
	if err != nil {
		return fmt.Errorf("failed to check scheduling conflicts: %w", err)
	}

	if conflicts := domain.FindConflicts(jobs, date, excludeJobID); len(conflicts) > 0 {
		return domain.ErrSchedulingConflict
	}

	return nil
}

// handleStatusChange runs status-specific hooks after a persisted
// transition. Completion feeds the customer-statistics refresh through
// the event bus; start and cancellation are intentional no-ops kept as
// extension points.
func (s *JobService) handleStatusChange(ctx context.Context, job *domain.Job) {
	switch job.Status {
	case domain.StatusCompleted:
		// Customer statistics are refreshed by the worker service
		// consuming the status-changed event; nothing more to do here.
	case domain.StatusInProgress:
		// No side effects beyond notification.
	case domain.StatusCancelled:
		// No side effects beyond notification.
	}
}

// publishEvent emits one lifecycle event. Publication is best-effort:
// a bus failure is logged and never rolls back the persisted change.
func (s *JobService) publishEvent(ctx context.Context, event domain.LifecycleEvent) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to encode lifecycle event",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
		return
	}

	if err := s.events.PublishWithRetry(ctx, event.RoutingKey(), body, "application/json"); err != nil {
		s.logger.Error("Failed to publish lifecycle event",
			slog.String("action", event.Action),
			slog.String("job_id", event.JobID),
			slog.Any("error", err),
		)
	}
}
