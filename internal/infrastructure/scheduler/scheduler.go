// Package scheduler runs the recurring maintenance jobs: the daily
// tracking refresh for undelivered shipments and the label retention
// cleanup.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the scheduler checks
// whether a job is due.
const cronTickerInterval = 1 * time.Minute

// ErrSchedulerNotRunning indicates a trigger on a stopped scheduler.
var ErrSchedulerNotRunning = fmt.Errorf("scheduler is not running")

// TrackingRefresher updates tracking data for undelivered shipments.
type TrackingRefresher interface {
	RefreshUndelivered(ctx context.Context) (int, error)
}

// LabelCleaner removes stored labels older than the given age.
type LabelCleaner interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// Config holds scheduler configuration
type Config struct {
	Enabled bool
	// TrackingCronSchedule is a "minute hour * * *" expression for the
	// daily tracking refresh.
	TrackingCronSchedule string
	// CleanupCronSchedule is a "minute hour * * *" expression for the
	// label cleanup.
	CleanupCronSchedule string
	// LabelRetention is how long stored labels are kept.
	LabelRetention time.Duration
	// JobTimeout is the maximum time a single job run can take.
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration: tracking at
// 6:00, cleanup at 3:00, ninety days of label retention.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		TrackingCronSchedule: "0 6 * * *",
		CleanupCronSchedule:  "0 3 * * *",
		LabelRetention:       90 * 24 * time.Hour,
		JobTimeout:           30 * time.Minute,
	}
}

// ParseCronSchedule extracts hour and minute from a "minute hour * * *"
// cron expression. Unparseable fields keep their defaults.
func ParseCronSchedule(expr string, defaultHour, defaultMinute int) (hour, minute int, err error) {
	hour = defaultHour
	minute = defaultMinute

	parts := strings.Fields(expr)
	if len(parts) < 2 {
		return hour, minute, nil
	}
	if parts[0] != "*" {
		if val, ok := parseCronField(parts[0]); ok {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, ok := parseCronField(parts[1]); ok {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return defaultHour, defaultMinute, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return defaultHour, defaultMinute, fmt.Errorf("hour must be 0-23, got %d", hour)
	}
	return hour, minute, nil
}

func parseCronField(s string) (int, bool) {
	val := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		val = val*10 + int(c-'0')
	}
	return val, s != ""
}

// jobSpec is one scheduled daily job.
type jobSpec struct {
	name   string
	hour   int
	minute int
	run    func(ctx context.Context)
}

func (j jobSpec) due(now time.Time) bool {
	return now.Hour() == j.hour && now.Minute() == j.minute
}

// CronScheduler runs the daily maintenance jobs on a minute ticker.
type CronScheduler struct {
	config   Config
	tracking TrackingRefresher
	labels   LabelCleaner
	logger   *zap.Logger
	jobs     []jobSpec

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastTrackingRun *time.Time
	lastCleanupRun  *time.Time
}

// NewCronScheduler creates a scheduler for the given jobs. Either
// dependency may be nil, in which case its job is not scheduled.
func NewCronScheduler(config Config, tracking TrackingRefresher, labels LabelCleaner, logger *zap.Logger) (*CronScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CronScheduler{
		config:   config,
		tracking: tracking,
		labels:   labels,
		logger:   logger,
	}

	if tracking != nil {
		hour, minute, err := ParseCronSchedule(config.TrackingCronSchedule, 6, 0)
		if err != nil {
			return nil, fmt.Errorf("tracking schedule: %w", err)
		}
		s.jobs = append(s.jobs, jobSpec{name: "tracking_refresh", hour: hour, minute: minute, run: s.runTrackingJob})
	}
	if labels != nil {
		hour, minute, err := ParseCronSchedule(config.CleanupCronSchedule, 3, 0)
		if err != nil {
			return nil, fmt.Errorf("cleanup schedule: %w", err)
		}
		s.jobs = append(s.jobs, jobSpec{name: "label_cleanup", hour: hour, minute: minute, run: s.runCleanupJob})
	}
	return s, nil
}

// Start starts the scheduler loop.
func (s *CronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	for _, job := range s.jobs {
		s.logger.Info("Scheduled daily job",
			zap.String("job", job.name),
			zap.Int("hour", job.hour),
			zap.Int("minute", job.minute),
		)
	}
	return nil
}

// Stop stops the scheduler and waits for an in-flight job to finish,
// bounded by the given context.
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *CronScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, job := range s.jobs {
				if job.due(now) {
					job.run(ctx)
				}
			}
		}
	}
}

// TriggerTrackingRefresh runs the tracking refresh immediately.
// Runs detached so an HTTP caller is not held for the full walk.
func (s *CronScheduler) TriggerTrackingRefresh() error {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}
	go s.runTrackingJob(context.Background())
	return nil
}

func (s *CronScheduler) runTrackingJob(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	s.lastTrackingRun = &now
	s.mu.Unlock()

	updated, err := s.tracking.RefreshUndelivered(ctx)
	if err != nil {
		s.logger.Error("Daily tracking refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("Daily tracking refresh finished", zap.Int("updated", updated))
}

func (s *CronScheduler) runCleanupJob(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	s.lastCleanupRun = &now
	s.mu.Unlock()

	removed, err := s.labels.CleanupOlderThan(ctx, s.config.LabelRetention)
	if err != nil {
		s.logger.Error("Label cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("Label cleanup finished", zap.Int("removed", removed))
}

// Status reports the scheduler state for diagnostics.
func (s *CronScheduler) Status() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, fmt.Sprintf("%s@%02d:%02d", job.name, job.hour, job.minute))
	}
	return map[string]any{
		"enabled":           s.config.Enabled,
		"is_running":        s.isRunning,
		"jobs":              jobs,
		"last_tracking_run": s.lastTrackingRun,
		"last_cleanup_run":  s.lastCleanupRun,
	}
}
