package scheduler

import (
	"log"
	"time"

	"bobalove-backend/internal/push/usecase"
)

// MaintenanceScheduler periodically runs the subscription/device repair
// jobs that would otherwise only fire on operator request.
type MaintenanceScheduler struct {
	maintenance usecase.MaintenanceUsecase
	interval    time.Duration
	stopChan    chan struct{}
}

// NewMaintenanceScheduler creates a new scheduler
func NewMaintenanceScheduler(maintenance usecase.MaintenanceUsecase, interval time.Duration) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		maintenance: maintenance,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *MaintenanceScheduler) Start() {
	log.Printf("[Maintenance] Starting scheduler (interval: %s)", s.interval)

	go func() {
		// Run once on start so a long-stopped deployment catches up
		s.runJobs()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runJobs()
			case <-s.stopChan:
				log.Println("[Maintenance] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop() {
	close(s.stopChan)
}

func (s *MaintenanceScheduler) runJobs() {
	if result := s.maintenance.CleanupExpiredDevices(); !result.Success {
		log.Printf("[Maintenance] cleanupExpiredDevices failed: %s", result.Message)
	}
	if result := s.maintenance.FixSubscriptions(); !result.Success {
		log.Printf("[Maintenance] fixSubscriptions failed: %s", result.Message)
	}
}
