package cron

import (
	"context"
	"log"
	"time"

	"github.com/fishlog/fishlog-backend/internal/metrics"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// Sweeper drops idle per-client state, e.g. the HTTP rate limiter.
type Sweeper interface {
	Sweep() int
}

// Config holds retention windows for the cleanup jobs.
type Config struct {
	InvitationRetention   time.Duration
	NotificationRetention time.Duration
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron             *cron.Cron
	invitations      service.InvitationService
	challenges       service.ChallengeService
	notificationRepo repository.NotificationRepository
	sweeper          Sweeper
	cfg              Config
	now              func() time.Time
}

// NewScheduler creates a new scheduler. sweeper may be nil.
func NewScheduler(services *service.Services, notificationRepo repository.NotificationRepository, sweeper Sweeper, cfg Config) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		invitations:      services.Invitation,
		challenges:       services.Challenge,
		notificationRepo: notificationRepo,
		sweeper:          sweeper,
		cfg:              cfg,
		now:              time.Now,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Every day at 3 AM - Purge long-expired invitations
	s.addJob("0 3 * * *", "purge_invitations", s.purgeExpiredInvitations)

	// Every Sunday at midnight - Clean up old read notifications
	s.addJob("0 0 * * 0", "cleanup_notifications", s.cleanupOldNotifications)

	// Every hour - Close challenges past their end date
	s.addJob("0 * * * *", "complete_challenges", s.completeExpiredChallenges)

	if s.sweeper != nil {
		s.addJob("*/15 * * * *", "sweep_rate_limits", s.sweepRateLimits)
	}

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) addJob(spec, name string, job func(context.Context) error) {
	_, err := s.cron.AddFunc(spec, func() {
		log.Printf("[Cron] Running %s...", name)
		s.run(name, job)
	})
	if err != nil {
		log.Printf("[Cron] Failed to schedule %s: %v", name, err)
	}
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := job(ctx); err != nil {
		log.Printf("[Cron] %s failed: %v", name, err)
		metrics.CronRuns.WithLabelValues(name, "error").Inc()
		return
	}
	metrics.CronRuns.WithLabelValues(name, "ok").Inc()
}

func (s *Scheduler) purgeExpiredInvitations(ctx context.Context) error {
	n, err := s.invitations.PurgeExpired(ctx, s.cfg.InvitationRetention)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Cron] Purged %d expired invitations", n)
	}
	return nil
}

// cleanupOldNotifications removes read notifications past the retention window
func (s *Scheduler) cleanupOldNotifications(ctx context.Context) error {
	n, err := s.notificationRepo.DeleteReadBefore(ctx, s.now().Add(-s.cfg.NotificationRetention))
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Cron] Deleted %d old notifications", n)
	}
	return nil
}

func (s *Scheduler) completeExpiredChallenges(ctx context.Context) error {
	n, err := s.challenges.CompleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Cron] Completed %d expired challenges", n)
	}
	return nil
}

func (s *Scheduler) sweepRateLimits(context.Context) error {
	if n := s.sweeper.Sweep(); n > 0 {
		log.Printf("[Cron] Dropped %d idle rate limit entries", n)
	}
	return nil
}

// ManualTrigger allows manual triggering of scheduled jobs
func (s *Scheduler) ManualTrigger(job string) {
	switch job {
	case "invitations":
		s.run("purge_invitations", s.purgeExpiredInvitations)
	case "notifications":
		s.run("cleanup_notifications", s.cleanupOldNotifications)
	case "challenges":
		s.run("complete_challenges", s.completeExpiredChallenges)
	case "all":
		s.run("purge_invitations", s.purgeExpiredInvitations)
		s.run("cleanup_notifications", s.cleanupOldNotifications)
		s.run("complete_challenges", s.completeExpiredChallenges)
	default:
		log.Printf("[Cron] Unknown job %q", job)
	}
}
