package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

// processEvent applies a lifecycle event's side effects: every event is
// recorded on the audit trail, and events that reference a customer
// trigger a statistics refresh. Both writes are idempotent, so broker
// redelivery is safe.
func (w *Worker) processEvent(ctx context.Context, msg *eventMessage) error {
	event := msg.Event

	w.logger.Info("Processing event",
		slog.String("job_id", event.JobID),
		slog.String("action", event.Action),
		slog.String("tenant_id", event.TenantID),
	)

	eventCtx, cancel := context.WithTimeout(ctx, w.eventTimeout)
	defer cancel()

	if err := w.storage.RecordEvent(eventCtx, event); err != nil {
		// Audit writes hit only our own database; failures are assumed
		// transient.
		return NewRetryableError(fmt.Errorf("failed to record event: %w", err))
	}

	if event.CustomerID != "" {
		if err := w.storage.RefreshCustomerStats(eventCtx, event.TenantID, event.CustomerID); err != nil {
			return NewRetryableError(fmt.Errorf("failed to refresh customer stats: %w", err))
		}

		if event.Action == domain.EventJobStatusChanged && event.ToStatus == domain.StatusCompleted {
			w.logger.Info("Customer statistics refreshed after completion",
				slog.String("customer_id", event.CustomerID),
				slog.String("job_id", event.JobID),
			)
		}
	}

	return nil
}
