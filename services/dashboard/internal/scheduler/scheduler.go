// Package scheduler refreshes the remote job set on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobhub/common/telemetry"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobhub/dashboard/scheduler")

const refreshTimeout = 2 * time.Minute

type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshScheduler runs Refresh on spec, a standard cron expression or a
// descriptor such as "@every 15m". Overlapping runs are skipped.
type RefreshScheduler struct {
	refresher Refresher
	logger    *zap.Logger
	spec      string
	cron      *cron.Cron

	mutex    sync.Mutex
	isActive bool
	runs     int
}

func NewRefreshScheduler(refresher Refresher, logger *zap.Logger, spec string) *RefreshScheduler {
	cl := cronLogger{logger.Sugar()}
	return &RefreshScheduler{
		refresher: refresher,
		logger:    logger,
		spec:      spec,
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
	}
}

// Start registers the refresh job and starts the cron loop. An empty spec
// disables scheduling. Calling Start twice is a no-op.
func (s *RefreshScheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("REFRESH_SPEC not set, scheduled refresh disabled")
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.isActive {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runRefresh); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.isActive = true

	s.logger.Info("refresh scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running refresh to finish or
// ctx to end.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mutex.Lock()
	if !s.isActive {
		s.mutex.Unlock()
		return nil
	}
	s.isActive = false
	s.mutex.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RefreshScheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "RefreshScheduler.runRefresh")
	defer span.End()

	s.mutex.Lock()
	s.runs++
	run := s.runs
	s.mutex.Unlock()

	start := time.Now()
	if err := s.refresher.Refresh(ctx); err != nil {
		span.RecordError(err)
		s.logger.Error("scheduled refresh failed", zap.Int("run", run), zap.Error(err))
		return
	}
	s.logger.Info("scheduled refresh completed",
		zap.Int("run", run),
		zap.Duration("took", time.Since(start)))
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
