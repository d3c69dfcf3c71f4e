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

// NotificationService persists notifications and pushes them to online
// recipients over the realtime hub. Persistence is the primary write;
// realtime delivery is best-effort on top of it.
type NotificationService struct {
	storage     *storage.Storage
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewNotificationService wires a NotificationService.
func NewNotificationService(st *storage.Storage, broadcaster Broadcaster, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		storage:     st,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID, tenantID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	return s.storage.ListNotifications(ctx, userID, tenantID, limit, unreadOnly)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.storage.MarkNotificationRead(ctx, notificationID, userID)
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID, tenantID string) error {
	return s.storage.MarkAllNotificationsRead(ctx, userID, tenantID)
}

// UnreadCount returns the user's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, userID, tenantID string) (int, error) {
	return s.storage.UnreadNotificationCount(ctx, userID, tenantID)
}

// NotifyJobAssigned notifies each assigned user about their new job.
func (s *NotificationService) NotifyJobAssigned(ctx context.Context, tenantID, jobID string, userIDs []string) error {
	data, _ := json.Marshal(map[string]string{"jobId": jobID})

	notifications := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, s.build(tenantID, userID,
			domain.NotificationJobAssigned,
			"Nyt job tildelt",
			"Du er blevet tildelt et nyt rengøringsjob",
			data,
		))
	}

	return s.dispatch(ctx, notifications)
}

// NotifyJobStatusChanged notifies the job's customer (when present) and
// the tenant's owners and admins about a status transition, using the
// Danish status text in the message.
func (s *NotificationService) NotifyJobStatusChanged(ctx context.Context, tenantID, jobID, customerID string, status domain.JobStatus) error {
	userIDs, err := s.storage.UserIDsByRoles(ctx, tenantID, []string{"owner", "admin"})
	if err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]string{
		"jobId":      jobID,
		"customerId": customerID,
		"status":     string(status),
	})

	notifications := make([]domain.Notification, 0, len(userIDs)+1)
	if customerID != "" {
		notifications = append(notifications, s.build(tenantID, customerID,
			domain.NotificationJobStatusUpdate,
			"Job status opdateret",
			fmt.Sprintf("Dit rengøringsjob er nu %s", domain.StatusText(status)),
			data,
		))
	}

	message := fmt.Sprintf("Jobbet er nu %s", domain.StatusText(status))
	for _, userID := range userIDs {
		notifications = append(notifications, s.build(tenantID, userID,
			domain.NotificationJobStatusUpdate,
			"Job status opdateret",
			message,
			data,
		))
	}

	return s.dispatch(ctx, notifications)
}

// NotifyPaymentReceived notifies owners and admins about a received
// payment.
func (s *NotificationService) NotifyPaymentReceived(ctx context.Context, tenantID, invoiceID string, amount float64) error {
	userIDs, err := s.storage.UserIDsByRoles(ctx, tenantID, []string{"owner", "admin"})
	if err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]any{
		"invoiceId": invoiceID,
		"amount":    amount,
	})
	message := fmt.Sprintf("Betaling på %.2f kr. er modtaget", amount)

	notifications := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, s.build(tenantID, userID,
			domain.NotificationPaymentReceived,
			"Betaling modtaget",
			message,
			data,
		))
	}

	return s.dispatch(ctx, notifications)
}

// NotifyCustomerMessage notifies owners and admins about an inbound
// customer message. It also backs the realtime hub's customer-message
// handler.
func (s *NotificationService) NotifyCustomerMessage(ctx context.Context, tenantID, customerID, jobID string) error {
	userIDs, err := s.storage.UserIDsByRoles(ctx, tenantID, []string{"owner", "admin"})
	if err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]string{
		"customerId": customerID,
		"jobId":      jobID,
	})

	notifications := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, s.build(tenantID, userID,
			domain.NotificationCustomerMessage,
			"Ny besked fra kunde",
			"En kunde har sendt en besked",
			data,
		))
	}

	return s.dispatch(ctx, notifications)
}

// NotifyQualityIssue notifies owners and admins about a reported quality
// issue on a job.
func (s *NotificationService) NotifyQualityIssue(ctx context.Context, tenantID, jobID, description string) error {
	userIDs, err := s.storage.UserIDsByRoles(ctx, tenantID, []string{"owner", "admin"})
	if err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]string{
		"jobId":       jobID,
		"description": description,
	})

	notifications := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, s.build(tenantID, userID,
			domain.NotificationQualityIssue,
			"Kvalitetsproblem rapporteret",
			description,
			data,
		))
	}

	return s.dispatch(ctx, notifications)
}

// NotifyScheduleChanged notifies the job's customer (when present) and
// the users assigned to a rescheduled job about its new date.
func (s *NotificationService) NotifyScheduleChanged(ctx context.Context, tenantID, jobID, customerID string, oldDate, newDate time.Time) error {
	userIDs, err := s.storage.AssignedUserIDs(ctx, jobID)
	if err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]string{
		"jobId":      jobID,
		"customerId": customerID,
		"oldDate":    oldDate.Format(time.RFC3339),
		"newDate":    newDate.Format(time.RFC3339),
	})

	notifications := make([]domain.Notification, 0, len(userIDs)+1)
	if customerID != "" {
		notifications = append(notifications, s.build(tenantID, customerID,
			domain.NotificationScheduleChange,
			"Tidsplan ændret",
			fmt.Sprintf("Dit rengøringsjob er flyttet til %s", newDate.Format("02-01-2006 15:04")),
			data,
		))
	}

	message := fmt.Sprintf("Jobbet er flyttet til %s", newDate.Format("02-01-2006 15:04"))
	for _, userID := range userIDs {
		notifications = append(notifications, s.build(tenantID, userID,
			domain.NotificationScheduleChange,
			"Tidsplan ændret",
			message,
			data,
		))
	}

	return s.dispatch(ctx, notifications)
}

func (s *NotificationService) build(tenantID, userID, notificationType, title, message string, data json.RawMessage) domain.Notification {
	return domain.Notification{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// dispatch persists the batch, then pushes each notification to its
// recipient's open connections. Push failures are invisible here; a
// dropped frame is recovered by the recipient's next list call.
func (s *NotificationService) dispatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	if err := s.storage.InsertNotifications(ctx, notifications); err != nil {
		return err
	}

	if s.broadcaster != nil {
		for _, n := range notifications {
			s.broadcaster.ToUser(n.UserID, "notification:new", n)
		}
	}

	s.logger.Debug("Dispatched notifications",
		slog.Int("count", len(notifications)),
		slog.String("type", notifications[0].Type),
	)

	return nil
}
