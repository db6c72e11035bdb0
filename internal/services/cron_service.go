package services

import (
	"fmt"
	"log"
	"time"

	"github.com/ridehub/ridehub-backend/internal/config"
	"github.com/robfig/cron/v3"
)

// CronService schedules the background sweeps
type CronService struct {
	cron   *cron.Cron
	sweeps *SweepService
	cfg    config.SchedulerConfig
}

// NewCronService creates a new CronService
func NewCronService(sweeps *SweepService, cfg config.SchedulerConfig) *CronService {
	// Cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:   c,
		sweeps: sweeps,
		cfg:    cfg,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	// Job 1: Payment requests, every 2 minutes
	_, err := s.cron.AddFunc(s.cfg.PaymentRequestSpec, s.paymentRequestJob)
	if err != nil {
		return fmt.Errorf("failed to schedule payment request job: %w", err)
	}
	log.Println("✓ Scheduled: Payment request sweep")

	// Job 2: Past-ride completion, hourly
	_, err = s.cron.AddFunc(s.cfg.PastRideSpec, s.pastRideJob)
	if err != nil {
		return fmt.Errorf("failed to schedule past ride job: %w", err)
	}
	log.Println("✓ Scheduled: Past-ride completion sweep")

	// Job 3: One-hour warnings, every 10 minutes
	_, err = s.cron.AddFunc(s.cfg.OneHourWarningSpec, s.oneHourWarningJob)
	if err != nil {
		return fmt.Errorf("failed to schedule one-hour warning job: %w", err)
	}
	log.Println("✓ Scheduled: One-hour warning sweep")

	// Job 4: Fund release safety net, every 5 minutes
	_, err = s.cron.AddFunc(s.cfg.FundReleaseSpec, s.fundReleaseJob)
	if err != nil {
		return fmt.Errorf("failed to schedule fund release job: %w", err)
	}
	log.Println("✓ Scheduled: Fund release sweep")

	s.cron.Start()
	log.Println("✓ Cron service started successfully")

	return nil
}

// Stop stops all cron jobs
func (s *CronService) Stop() {
	log.Println("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✓ Cron service stopped")
}

func (s *CronService) paymentRequestJob() {
	startTime := time.Now()

	processed, err := s.sweeps.ProcessPaymentRequests()
	if err != nil {
		log.Printf("[CRON ERROR] Payment request sweep failed: %v\n", err)
		return
	}

	if processed > 0 {
		log.Printf("[CRON] ✓ Requested payment for %d bookings in %v\n", processed, time.Since(startTime))
	}
}

func (s *CronService) pastRideJob() {
	startTime := time.Now()

	completed, err := s.sweeps.CompletePastRides()
	if err != nil {
		log.Printf("[CRON ERROR] Past-ride sweep failed: %v\n", err)
		return
	}

	if completed > 0 {
		log.Printf("[CRON] ✓ Completed %d stale rides in %v\n", completed, time.Since(startTime))
	}
}

func (s *CronService) oneHourWarningJob() {
	warned, err := s.sweeps.SendOneHourWarnings()
	if err != nil {
		log.Printf("[CRON ERROR] One-hour warning sweep failed: %v\n", err)
		return
	}

	if warned > 0 {
		log.Printf("[CRON] ✓ Warned %d rides departing within the hour\n", warned)
	}
}

func (s *CronService) fundReleaseJob() {
	startTime := time.Now()

	released, err := s.sweeps.ReleaseCompletedFunds()
	if err != nil {
		log.Printf("[CRON ERROR] Fund release sweep failed: %v\n", err)
		return
	}

	if released > 0 {
		log.Printf("[CRON] ✓ Released funds for %d bookings in %v\n", released, time.Since(startTime))
	}
}
