package worker

import (
	"context"
	"log"
	"time"

	"sidesa/service"
)

// NotificationWorker is a background worker that delivers queued reporter
// notifications.
type NotificationWorker struct {
	notificationService *service.NotificationService
	stopChan            chan struct{}
	running             bool
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(notificationService *service.NotificationService) *NotificationWorker {
	return &NotificationWorker{
		notificationService: notificationService,
		stopChan:            make(chan struct{}),
		running:             false,
	}
}

// Start starts the notification worker in its own goroutine.
func (w *NotificationWorker) Start() {
	if w.running {
		log.Println("Notification worker is already running")
		return
	}

	w.running = true
	log.Printf("Notification worker started (interval: %v)", w.notificationService.WorkerInterval())

	go w.run()
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() {
	if !w.running {
		return
	}

	log.Println("Stopping notification worker...")
	close(w.stopChan)
	w.running = false
	log.Println("Notification worker stopped")
}

// run is the main worker loop
func (w *NotificationWorker) run() {
	ticker := time.NewTicker(w.notificationService.WorkerInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			delivered, err := w.notificationService.ProcessPending(context.Background())
			if err != nil {
				log.Printf("Error processing notifications: %v", err)
				continue
			}
			if delivered > 0 {
				log.Printf("Delivered %d notifications", delivered)
			}
		case <-w.stopChan:
			return
		}
	}
}
