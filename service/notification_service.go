package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"sidesa/models"
	"sidesa/repository"
)

// NotificationService queues in-app notifications for complaint reporters
// and delivers pending rows from the background worker. Delivery is
// best-effort: a failed notification never blocks or rolls back a workflow
// transition.
type NotificationService struct {
	repo   *repository.NotificationRepository
	config *models.NotificationConfig
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo *repository.NotificationRepository, config *models.NotificationConfig) *NotificationService {
	if config == nil {
		config = models.DefaultNotificationConfig()
	}
	return &NotificationService{repo: repo, config: config}
}

// NotifyStatusChange queues a notification telling the reporter their
// complaint moved to a new status. Non-blocking: the row is picked up by the
// worker.
func (s *NotificationService) NotifyStatusChange(ctx context.Context, c *models.Complaint, newStatus models.ComplaintStatus, note string) error {
	body := fmt.Sprintf("Pengaduan %s sekarang berstatus %s.", c.ComplaintNumber, newStatus)
	if note != "" {
		body = fmt.Sprintf("%s Catatan: %s", body, note)
	}

	n := &models.Notification{
		ComplaintID:     c.ComplaintID,
		RecipientUserID: c.ReporterUserID,
		Subject:         fmt.Sprintf("Status pengaduan %s", c.ComplaintNumber),
		Body:            body,
	}
	return s.repo.CreateNotification(ctx, n)
}

// ListForUser returns a citizen's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	return s.repo.ListByRecipient(ctx, userID)
}

// ProcessPending delivers a batch of pending notifications. Called
// periodically by the notification worker. Returns how many were delivered.
func (s *NotificationService) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.repo.GetPendingNotifications(ctx, s.config.WorkerBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		// In-app delivery is just flipping the row to sent; the mobile and
		// web clients poll ListForUser.
		if err := s.repo.MarkSent(ctx, n.NotificationID, time.Now().UTC()); err != nil {
			log.Printf("[notification] Failed to deliver notification %d: %v", n.NotificationID, err)
			if ferr := s.repo.MarkFailed(ctx, n.NotificationID, s.config.MaxRetries); ferr != nil {
				log.Printf("[notification] Failed to record failure for notification %d: %v", n.NotificationID, ferr)
			}
			continue
		}
		delivered++
	}
	return delivered, nil
}

// WorkerInterval exposes the configured delivery cadence to the worker.
func (s *NotificationService) WorkerInterval() time.Duration {
	return s.config.WorkerInterval
}
