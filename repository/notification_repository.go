package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sidesa/models"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification inserts a pending notification row.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			complaint_id, recipient_user_id, subject, body, status, retry_count
		) VALUES (?, ?, ?, ?, ?, 0)
	`

	result, err := r.db.ExecContext(ctx, query, n.ComplaintID, n.RecipientUserID, n.Subject, n.Body, models.NotificationStatusPending)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification ID: %w", err)
	}
	n.NotificationID = id
	n.Status = models.NotificationStatusPending
	return nil
}

// GetPendingNotifications returns up to limit undelivered notifications,
// oldest first.
func (r *NotificationRepository) GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	query := `
		SELECT notification_id, complaint_id, recipient_user_id, subject, body, status, retry_count, sent_at, created_at
		FROM notifications
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, models.NotificationStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// ListByRecipient returns a citizen's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID int64) ([]models.Notification, error) {
	query := `
		SELECT notification_id, complaint_id, recipient_user_id, subject, body, status, retry_count, sent_at, created_at
		FROM notifications
		WHERE recipient_user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// MarkSent marks a notification as delivered.
func (r *NotificationRepository) MarkSent(ctx context.Context, notificationID int64, sentAt time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE notifications SET status = ?, sent_at = ? WHERE notification_id = ?`,
		models.NotificationStatusSent, sentAt, notificationID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d sent: %w", notificationID, err)
	}
	return nil
}

// MarkFailed bumps the retry count; past maxRetries the row is failed for
// good, otherwise it stays pending for the next worker pass.
func (r *NotificationRepository) MarkFailed(ctx context.Context, notificationID int64, maxRetries int) error {
	query := `
		UPDATE notifications
		SET retry_count = retry_count + 1,
		    status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE ? END
		WHERE notification_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, maxRetries, models.NotificationStatusFailed, models.NotificationStatusPending, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d failed: %w", notificationID, err)
	}
	return nil
}

func scanNotifications(rows *sql.Rows) ([]models.Notification, error) {
	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.NotificationID,
			&n.ComplaintID,
			&n.RecipientUserID,
			&n.Subject,
			&n.Body,
			&n.Status,
			&n.RetryCount,
			&n.SentAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
