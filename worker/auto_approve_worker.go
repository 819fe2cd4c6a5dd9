package worker

import (
	"context"
	"log"
	"time"

	"sidesa/service"
)

// AutoApproveWorker is a background worker that periodically sweeps
// admin_approved complaints past the kepala_dusun inactivity window and
// auto-approves them. Each sweep run applies the same compare-and-swap
// transition the interactive paths use, so it is safe against concurrent
// kepala_dusun actions.
type AutoApproveWorker struct {
	workflow *service.WorkflowService
	interval time.Duration
	stopChan chan struct{}
	running  bool
}

// NewAutoApproveWorker creates a new auto-approval worker
func NewAutoApproveWorker(workflow *service.WorkflowService, interval time.Duration) *AutoApproveWorker {
	return &AutoApproveWorker{
		workflow: workflow,
		interval: interval,
		stopChan: make(chan struct{}),
		running:  false,
	}
}

// Start starts the auto-approval worker in its own goroutine.
func (w *AutoApproveWorker) Start() {
	if w.running {
		log.Println("Auto-approval worker is already running")
		return
	}

	w.running = true
	log.Printf("Auto-approval worker started (interval: %v)", w.interval)

	go w.run()
}

// Stop stops the auto-approval worker
func (w *AutoApproveWorker) Stop() {
	if !w.running {
		return
	}

	log.Println("Stopping auto-approval worker...")
	close(w.stopChan)
	w.running = false
	log.Println("Auto-approval worker stopped")
}

// run is the main worker loop
func (w *AutoApproveWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Process immediately on start
	w.sweep()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			return
		}
	}
}

// sweep runs one auto-approval pass. Idempotent: re-running over the same
// complaints is harmless because the compare-and-swap skips anything that
// already moved on.
func (w *AutoApproveWorker) sweep() {
	startTime := time.Now()

	results, err := w.workflow.ProcessAutoApprovals(context.Background())
	if err != nil {
		log.Printf("Error processing auto-approvals: %v", err)
		return
	}

	approvedCount := 0
	skippedCount := 0
	for _, result := range results {
		if result.AutoApproved {
			approvedCount++
			log.Printf("Auto-approved complaint #%d: %s", result.ComplaintID, result.Reason)
		} else {
			skippedCount++
		}
	}

	if approvedCount > 0 || skippedCount > 0 {
		log.Printf("Auto-approval sweep completed in %v: %d approved, %d skipped",
			time.Since(startTime), approvedCount, skippedCount)
	}
}
