package storage

import (
	"context"
	"fmt"

	"github.com/TekupDK/tekup-sub000/internal/domain"
)

const notificationColumns = `
	id, tenant_id, user_id, type, title, message, data, is_read, created_at
`

// InsertNotifications persists a batch of notification rows. Rows are
// inserted as written; there is no deduplication.
func (s *Storage) InsertNotifications(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO notifications (
			id, tenant_id, user_id, type, title, message, data, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, n := range notifications {
		_, err := tx.ExecContext(ctx, query,
			n.ID, n.TenantID, n.UserID, n.Type, n.Title, n.Message,
			[]byte(n.Data), n.IsRead, n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notifications: %w", err)
	}

	return nil
}

// ListNotifications returns a user's notifications newest first.
func (s *Storage) ListNotifications(ctx context.Context, userID, tenantID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND tenant_id = $2`

	if unreadOnly {
		query += ` AND is_read = FALSE`
	}

	query += ` ORDER BY created_at DESC LIMIT $3`

	var notifications []domain.Notification
	if err := s.db.SelectContext(ctx, &notifications, query, userID, tenantID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead flags one notification as read. Only the
// recipient can mark their own notifications.
func (s *Storage) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

// MarkAllNotificationsRead flags every unread notification of the user.
func (s *Storage) MarkAllNotificationsRead(ctx context.Context, userID, tenantID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND tenant_id = $2 AND is_read = FALSE`,
		userID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	return nil
}

// UnreadNotificationCount returns the user's unread notification count.
func (s *Storage) UnreadNotificationCount(ctx context.Context, userID, tenantID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND tenant_id = $2 AND is_read = FALSE`,
		userID, tenantID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}
