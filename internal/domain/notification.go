package domain

import (
	"encoding/json"
	"time"
)

// Notification types produced by the dispatcher.
const (
	NotificationJobAssigned     = "job_assigned"
	NotificationJobStatusUpdate = "job_status_update"
	NotificationPaymentReceived = "payment_received"
	NotificationCustomerMessage = "customer_message"
	NotificationQualityIssue    = "quality_issue"
	NotificationScheduleChange  = "schedule_change"
)

// Notification is a persisted message for a single recipient. It is
// created by the dispatcher and only ever mutated by the recipient's
// mark-read operations.
type Notification struct {
	ID        string          `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Type      string          `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// statusTexts maps job statuses to the customer-facing Danish copy used
// in notification messages.
var statusTexts = map[JobStatus]string{
	StatusScheduled:   "planlagt",
	StatusConfirmed:   "bekræftet",
	StatusInProgress:  "i gang",
	StatusCompleted:   "færdig",
	StatusCancelled:   "aflyst",
	StatusRescheduled: "omplanlagt",
}

// StatusText returns the human-readable Danish text for a status,
// falling back to the raw status value.
func StatusText(s JobStatus) string {
	if text, ok := statusTexts[s]; ok {
		return text
	}
	return string(s)
}
