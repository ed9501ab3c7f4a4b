package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scheduler"
	"github.com/wonny/prophet/pkg/logger"
)

const monitorJobName = "prophet_monitor"

// Monitor re-runs the full scan at a fixed interval until stopped
// ⭐ SSOT: 연속 모니터링 (중단 신호는 종목 사이에서만 확인)
type Monitor struct {
	scanner  *Scanner
	universe contracts.UniverseBuilder
	interval time.Duration
	sched    *scheduler.Scheduler
	onReport func(*contracts.ScanReport)
	now      func() time.Time
	running  sync.Mutex
	logger   *logger.Logger
}

// NewMonitor creates a monitor. onReport may be nil.
func NewMonitor(
	scanner *Scanner,
	universe contracts.UniverseBuilder,
	interval time.Duration,
	onReport func(*contracts.ScanReport),
	log *logger.Logger,
) *Monitor {
	return &Monitor{
		scanner:  scanner,
		universe: universe,
		interval: interval,
		sched:    scheduler.New(log),
		onReport: onReport,
		now:      time.Now,
		logger:   log.WithComponent("monitor"),
	}
}

// Run scans immediately, then every interval, until ctx is cancelled.
// It returns after the in-flight scan has finished.
func (m *Monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return fmt.Errorf("monitor interval must be > 0, got %s", m.interval)
	}

	job := scheduler.FuncJob{
		JobName: monitorJobName,
		Spec:    scheduler.Every(m.interval),
		Fn:      m.runOnce,
	}
	if err := m.sched.AddJob(job); err != nil {
		return err
	}

	m.logger.WithField("interval", m.interval.String()).Info("Monitor started")
	m.sched.Start()

	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		m.sched.Stop()
		close(stopped)
	}()

	if _, err := m.sched.RunNow(monitorJobName); err != nil {
		return err
	}

	<-stopped
	m.logger.Info("Monitor stopped")
	return nil
}

// Stats returns the monitor's run statistics
func (m *Monitor) Stats() scheduler.JobStats {
	return m.sched.GetJobStats()[monitorJobName]
}

func (m *Monitor) runOnce(ctx context.Context) error {
	// 이전 스캔이 진행 중이면 이번 주기는 건너뜀
	if !m.running.TryLock() {
		m.logger.Warn("Previous scan still running, skipping cycle")
		return nil
	}
	defer m.running.Unlock()

	asOf := m.now()
	universe, err := m.universe.Build(ctx, asOf)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	report, err := m.scanner.Scan(ctx, universe.Tickers, asOf)
	if m.onReport != nil && report != nil {
		m.onReport(report)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
