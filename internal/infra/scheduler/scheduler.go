package scheduler

import (
	"context"
	"fmt"
	"time"

	"subscription_reminder_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ScanRunner is the part of SettingsService the scheduler drives.
type ScanRunner interface {
	RunScheduledScan(ctx context.Context, now time.Time) (app.ScanResult, error)
}

// ReminderScheduler wakes up on a cron spec and asks for the daily reminder scan.
// The once-per-day guard lives in the scan, so frequent wake-ups are cheap and
// a missed day is caught up on the next tick.
type ReminderScheduler struct {
	cronEngine  *cron.Cron
	runner      ScanRunner
	logger      *logrus.Entry
	cronSpec    string
	scanTimeout time.Duration
	location    *time.Location
	now         func() time.Time
}

func NewReminderScheduler(
	runner ScanRunner,
	logger *logrus.Entry,
	cronSpec string, // e.g., "*/30 * * * *"
	scanTimeout time.Duration,
	location *time.Location,
) *ReminderScheduler {
	if location == nil {
		location = time.Local
	}
	return &ReminderScheduler{
		cronEngine:  cron.New(cron.WithLocation(location)),
		runner:      runner,
		logger:      logger,
		cronSpec:    cronSpec,
		scanTimeout: scanTimeout,
		location:    location,
		now:         time.Now,
	}
}

// Start registers the job, runs one scan immediately for the launch catch-up and starts the cron engine.
func (s *ReminderScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Debug("Cron job triggered for daily reminder scan.")
		s.RunOnce()
	})
	if err != nil {
		return fmt.Errorf("could not add daily scan cron job: %w", err)
	}

	go s.RunOnce()

	s.cronEngine.Start()
	s.logger.Info("Reminder scheduler started.")
	return nil
}

// RunOnce performs one scheduled scan bounded by the scan timeout.
func (s *ReminderScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
	defer cancel()

	now := s.now().In(s.location)
	result, err := s.runner.RunScheduledScan(ctx, now)
	if err != nil {
		s.logger.WithError(err).Error("Error during daily reminder scan")
		return
	}
	if result.Skipped {
		s.logger.WithField("reason", result.SkipReason).Debug("Daily reminder scan skipped")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"evaluated": result.Evaluated,
		"delivered": result.Delivered,
		"failed":    len(result.Failures),
	}).Info("Daily reminder scan finished")
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
