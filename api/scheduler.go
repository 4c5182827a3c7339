/*
scheduler.go - Recurring entitlement check driver

PURPOSE:
  Runs the entitlement sweeper on a fixed cadence: once shortly after
  startup, then every 24 hours. Also exposes on-demand triggering for the
  admin endpoint.

DESIGN:
  - Background goroutine with an initial delay timer, then a ticker
  - Each pass is recorded as a sweep run for audit and UI display
  - A pass that fails is logged and recorded, never stops the ticker
  - The sweeper's own mutex prevents overlapping passes

CONFIGURATION:
  - InitialDelay: Pause before the first pass (default: 10 seconds)
  - Interval: Cadence of subsequent passes (default: 24 hours)

USAGE:
  scheduler := NewEntitlementScheduler(store, sweeper)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerEntitlementCheck endpoint (manual pass)
  - entitlement/sweep.go: the pass itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/personnel-engine/entitlement"
	"github.com/warp/personnel-engine/store/sqlite"
)

// EntitlementScheduler drives recurring entitlement sweeps.
type EntitlementScheduler struct {
	Store        *sqlite.Store
	Sweeper      *entitlement.Sweeper
	InitialDelay time.Duration
	Interval     time.Duration
	Enabled      bool

	log  logrus.FieldLogger
	stop chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
}

// NewEntitlementScheduler creates a scheduler with production defaults.
func NewEntitlementScheduler(store *sqlite.Store, sweeper *entitlement.Sweeper) *EntitlementScheduler {
	return &EntitlementScheduler{
		Store:        store,
		Sweeper:      sweeper,
		InitialDelay: 10 * time.Second,
		Interval:     24 * time.Hour,
		Enabled:      true,
		log:          logrus.WithField("component", "scheduler"),
		stop:         make(chan struct{}),
	}
}

// Start begins the scheduler.
func (es *EntitlementScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		es.log.Info("disabled, not starting")
		return
	}

	es.wg.Add(1)
	go es.run()

	es.log.WithFields(logrus.Fields{
		"initial_delay": es.InitialDelay,
		"interval":      es.Interval,
	}).Info("started")
}

// Stop stops the scheduler and waits for any in-flight pass to finish.
func (es *EntitlementScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	select {
	case <-es.stop:
		return
	default:
	}
	close(es.stop)
	es.wg.Wait()
	es.log.Info("stopped")
}

func (es *EntitlementScheduler) run() {
	defer es.wg.Done()

	delay := time.NewTimer(es.InitialDelay)
	defer delay.Stop()

	select {
	case <-delay.C:
		es.runPass("schedule")
	case <-es.stop:
		return
	}

	ticker := time.NewTicker(es.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			es.runPass("schedule")
		case <-es.stop:
			return
		}
	}
}

// RunNow triggers an immediate pass and returns its run id and summary.
func (es *EntitlementScheduler) RunNow() (string, entitlement.Summary, error) {
	return es.pass(context.Background(), "manual")
}

func (es *EntitlementScheduler) runPass(source string) {
	if _, _, err := es.pass(context.Background(), source); err != nil {
		es.log.WithError(err).Error("entitlement pass failed")
	}
}

// pass runs one sweep and records it. The run record is written up front as
// "running" and updated on the way out, so a crash mid-pass still leaves a
// trace.
func (es *EntitlementScheduler) pass(ctx context.Context, source string) (string, entitlement.Summary, error) {
	start := time.Now()
	run := sqlite.SweepRun{
		ID:            uuid.NewString(),
		TriggerSource: source,
		Status:        "running",
		StartedAt:     &start,
		CreatedAt:     start,
	}
	if err := es.Store.SaveSweepRun(ctx, run); err != nil {
		es.log.WithError(err).Error("failed to record sweep run")
	}

	summary, err := es.Sweeper.Run(ctx)

	completed := time.Now()
	run.Employees = summary.Employees
	run.Created = summary.Created
	run.Deduplicated = summary.Deduplicated
	run.Failures = summary.Failures
	run.CompletedAt = &completed
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	} else {
		run.Status = "completed"
	}
	if saveErr := es.Store.SaveSweepRun(ctx, run); saveErr != nil {
		es.log.WithError(saveErr).Error("failed to update sweep run")
	}

	return run.ID, summary, err
}
