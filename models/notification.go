package models

import (
	"database/sql"
	"time"
)

// NotificationStatus represents the delivery status of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is an in-app notification for the complaint reporter. Rows are
// written on every workflow transition and delivered by the background worker.
type Notification struct {
	NotificationID  int64              `db:"notification_id" json:"notification_id"`
	ComplaintID     int64              `db:"complaint_id" json:"complaint_id"`
	RecipientUserID int64              `db:"recipient_user_id" json:"recipient_user_id"`
	Subject         string             `db:"subject" json:"subject"`
	Body            string             `db:"body" json:"body"`
	Status          NotificationStatus `db:"status" json:"status"`
	RetryCount      int                `db:"retry_count" json:"retry_count"`
	SentAt          sql.NullTime       `db:"sent_at" json:"sent_at"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

// NotificationConfig holds worker tuning for notification delivery
type NotificationConfig struct {
	MaxRetries      int
	WorkerBatchSize int
	WorkerInterval  time.Duration
}

// DefaultNotificationConfig returns the default delivery configuration
func DefaultNotificationConfig() *NotificationConfig {
	return &NotificationConfig{
		MaxRetries:      3,
		WorkerBatchSize: 100,
		WorkerInterval:  30 * time.Second,
	}
}
