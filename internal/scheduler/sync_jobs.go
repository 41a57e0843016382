package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/domain"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
)

// Job tags, also surfaced by the status endpoint.
const (
	jobAccounts  = "sync-accounts"
	jobCampaigns = "sync-campaigns"
	jobInsights  = "sync-insights"
)

// SyncJobService schedules the periodic fleet syncs. Overlap protection
// lives in the engine's scope locks; a tick that lands while the same
// scope still runs is simply rejected there.
type SyncJobService struct {
	scheduler *gocron.Scheduler
	engine    *syncer.Engine
	cfg       config.SyncJobs
}

func NewSyncJobService(engine *syncer.Engine, cfg config.SyncJobs) *SyncJobService {
	return &SyncJobService{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    engine,
		cfg:       cfg,
	}
}

// Start registers the cron jobs and runs the scheduler until the context
// is cancelled. A disabled configuration is a no-op, not an error.
func (s *SyncJobService) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		logrus.Info("scheduler: periodic sync disabled by configuration")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"accounts_cron":  s.cfg.AccountsCron,
		"campaigns_cron": s.cfg.CampaignsCron,
		"insights_cron":  s.cfg.InsightsCron,
		"lookback_days":  s.cfg.LookbackDays,
	}).Info("scheduler: registering sync jobs")

	if _, err := s.scheduler.Cron(s.cfg.AccountsCron).Tag(jobAccounts).Do(func() {
		s.runJob(ctx, jobAccounts, func(ctx context.Context) (*domain.SyncResult, error) {
			return s.engine.SyncAllAccounts(ctx)
		})
	}); err != nil {
		return errors.Wrap(err, "scheduler: registering accounts job")
	}

	if _, err := s.scheduler.Cron(s.cfg.CampaignsCron).Tag(jobCampaigns).Do(func() {
		s.runJob(ctx, jobCampaigns, func(ctx context.Context) (*domain.SyncResult, error) {
			return s.engine.SyncAllCampaigns(ctx)
		})
	}); err != nil {
		return errors.Wrap(err, "scheduler: registering campaigns job")
	}

	if _, err := s.scheduler.Cron(s.cfg.InsightsCron).Tag(jobInsights).Do(func() {
		s.runJob(ctx, jobInsights, func(ctx context.Context) (*domain.SyncResult, error) {
			return s.engine.SyncAllAccountsInsights(ctx, s.cfg.LookbackDays)
		})
	}); err != nil {
		return errors.Wrap(err, "scheduler: registering insights job")
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("scheduler: stopping sync jobs")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *SyncJobService) runJob(ctx context.Context, name string, run func(ctx context.Context) (*domain.SyncResult, error)) {
	start := time.Now()
	logrus.WithField("job", name).Info("scheduler: job started")

	result, err := run(ctx)
	if err != nil {
		var busy *domain.ErrSyncAlreadyRunning
		if errors.As(err, &busy) {
			logrus.WithField("job", name).Info("scheduler: scope still running, tick skipped")
			return
		}
		logrus.WithError(err).WithField("job", name).Error("scheduler: job failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"job":       name,
		"run_id":    result.RunID,
		"processed": result.Processed,
		"errors":    result.Errors,
		"duration":  time.Since(start).String(),
	}).Info("scheduler: job finished")
}

// ScheduledJobs reports next and last run per registered job for the
// status endpoint.
func (s *SyncJobService) ScheduledJobs() []domain.ScheduledJob {
	jobs := s.scheduler.Jobs()
	scheduled := make([]domain.ScheduledJob, 0, len(jobs))

	for _, job := range jobs {
		entry := domain.ScheduledJob{}
		if tags := job.Tags(); len(tags) > 0 {
			entry.Name = tags[0]
		}
		if next := job.NextRun(); !next.IsZero() {
			nextRun := next
			entry.NextRun = &nextRun
		}
		if last := job.LastRun(); !last.IsZero() {
			lastRun := last
			entry.LastRun = &lastRun
		}
		scheduled = append(scheduled, entry)
	}

	return scheduled
}
