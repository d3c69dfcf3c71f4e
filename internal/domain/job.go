package domain

import (
	"time"
)

// JobStatus is the lifecycle state of a job. The zero value is not a
// valid status; jobs are always created as StatusScheduled.
type JobStatus string

const (
	StatusScheduled   JobStatus = "SCHEDULED"
	StatusConfirmed   JobStatus = "CONFIRMED"
	StatusInProgress  JobStatus = "IN_PROGRESS"
	StatusCompleted   JobStatus = "COMPLETED"
	StatusCancelled   JobStatus = "CANCELLED"
	StatusRescheduled JobStatus = "RESCHEDULED"
)

// validTransitions is the complete transition table. Statuses with an
// empty set (COMPLETED, CANCELLED, RESCHEDULED) are terminal.
var validTransitions = map[JobStatus][]JobStatus{
	StatusScheduled:   {StatusConfirmed, StatusCancelled, StatusRescheduled},
	StatusConfirmed:   {StatusInProgress, StatusCancelled, StatusRescheduled},
	StatusInProgress:  {StatusCompleted, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusRescheduled: {},
}

// AllStatuses lists every job status, useful for exhaustive checks.
var AllStatuses = []JobStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusRescheduled,
}

// IsValid reports whether s is a known job status.
func (s JobStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s.IsValid() && len(validTransitions[s]) == 0
}

// ValidateTransition checks the transition table and returns an
// *InvalidTransitionError when the requested change is not allowed.
// It is evaluated before any persistence write.
func ValidateTransition(current, requested JobStatus) error {
	allowed, ok := validTransitions[current]
	if !ok {
		return &InvalidTransitionError{From: current, To: requested}
	}
	for _, s := range allowed {
		if s == requested {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, To: requested}
}

// Location is the service address of a job.
type Location struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

// ChecklistItem is a single quality-checklist entry on a job.
type ChecklistItem struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Profitability is the cost breakdown recorded when a job completes.
type Profitability struct {
	TotalPrice   float64 `json:"total_price"`
	LaborCost    float64 `json:"labor_cost"`
	MaterialCost float64 `json:"material_cost"`
	TravelCost   float64 `json:"travel_cost"`
	ProfitMargin float64 `json:"profit_margin"`
}

// Job is a scheduled piece of field work for a customer.
//
// ParentJobID is set exactly when the job was replaced by a reschedule:
// the original keeps its scheduled date, moves to RESCHEDULED and points
// at the replacement job.
type Job struct {
	ID                  string         `db:"id"`
	TenantID            string         `db:"tenant_id"`
	CustomerID          string         `db:"customer_id"`
	ServiceType         string         `db:"service_type"`
	Status              JobStatus      `db:"status"`
	ScheduledDate       time.Time      `db:"scheduled_date"`
	EstimatedDuration   int            `db:"estimated_duration"`
	ActualDuration      *int           `db:"actual_duration"`
	QualityScore        *int           `db:"quality_score"`
	CustomerSignature   *string        `db:"customer_signature"`
	Profitability       *Profitability `db:"profitability"`
	Location            Location       `db:"location"`
	SpecialInstructions string         `db:"special_instructions"`
	Checklist           []ChecklistItem `db:"checklist"`
	ParentJobID         *string        `db:"parent_job_id"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

// JobAssignment links a team member to a job with a role inside the job.
// The assignment set for a job is always replaced wholesale, never
// patched row by row.
type JobAssignment struct {
	ID           string `db:"id"`
	JobID        string `db:"job_id"`
	TeamMemberID string `db:"team_member_id"`
	Role         string `db:"role"`

	// Joined member details, populated on reads.
	MemberName  string `db:"member_name"`
	MemberEmail string `db:"member_email"`
}

// CompletionDetails carries the optional fields stored atomically with a
// transition into COMPLETED.
type CompletionDetails struct {
	ActualDuration    *int           `json:"actual_duration,omitempty"`
	QualityScore      *int           `json:"quality_score,omitempty"`
	CustomerSignature *string        `json:"customer_signature,omitempty"`
	Profitability     *Profitability `json:"profitability,omitempty"`
}
