package domain

import "time"

// Lifecycle event actions, used as RabbitMQ routing-key suffixes
// (job.created, job.status_changed, ...).
const (
	EventJobCreated       = "created"
	EventJobStatusChanged = "status_changed"
	EventJobAssigned      = "assigned"
	EventJobRescheduled   = "rescheduled"
	EventJobDeleted       = "deleted"
)

// LifecycleEvent is the message published to the event bus after every
// successful job mutation. The worker service consumes these for
// best-effort side effects (customer statistics); they also feed the
// audit sink.
type LifecycleEvent struct {
	Action     string    `json:"action"`
	JobID      string    `json:"job_id"`
	TenantID   string    `json:"tenant_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	FromStatus JobStatus `json:"from_status,omitempty"`
	ToStatus   JobStatus `json:"to_status,omitempty"`

	// NewJobID is set on reschedule events and points at the
	// replacement job.
	NewJobID string `json:"new_job_id,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey returns the routing key for publishing this event.
func (e LifecycleEvent) RoutingKey() string {
	return "job." + e.Action
}
