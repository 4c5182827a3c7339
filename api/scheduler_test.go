package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/personnel-engine/entitlement"
	"github.com/warp/personnel-engine/hr"
	"github.com/warp/personnel-engine/store/sqlite"
)

func schedulerFixture(t *testing.T) (*sqlite.Store, *EntitlementScheduler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	admin := hr.User{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin}
	require.NoError(t, store.CreateUser(context.Background(), &admin))
	emp := hr.Employee{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 6, 15)}
	require.NoError(t, store.CreateEmployee(context.Background(), &emp))

	sweeper := entitlement.NewSweeper(store, store, store)
	sweeper.Now = func() hr.Date { return hr.NewDate(2024, 6, 1) }
	return store, NewEntitlementScheduler(store, sweeper)
}

func TestScheduler_InitialDelayThenPass(t *testing.T) {
	// GIVEN a scheduler with a short initial delay
	store, scheduler := schedulerFixture(t)
	scheduler.InitialDelay = 20 * time.Millisecond
	scheduler.Interval = time.Hour

	// WHEN it starts and the delay elapses
	scheduler.Start()
	defer scheduler.Stop()

	require.Eventually(t, func() bool {
		runs, err := store.ListSweepRuns(context.Background(), 10)
		return err == nil && len(runs) == 1 && runs[0].Status == "completed"
	}, 2*time.Second, 10*time.Millisecond)

	// THEN the pass created the due notification
	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, runs[0].Created)
	assert.Equal(t, "schedule", runs[0].TriggerSource)
}

func TestScheduler_StopBeforeInitialDelay(t *testing.T) {
	// GIVEN a scheduler that has not reached its first pass yet
	store, scheduler := schedulerFixture(t)
	scheduler.InitialDelay = time.Hour
	scheduler.Start()

	// WHEN it stops
	scheduler.Stop()

	// THEN no pass ever ran
	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	_, scheduler := schedulerFixture(t)
	scheduler.InitialDelay = time.Hour
	scheduler.Start()

	scheduler.Stop()
	scheduler.Stop() // must not panic or deadlock
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	store, scheduler := schedulerFixture(t)
	scheduler.Enabled = false
	scheduler.InitialDelay = time.Millisecond

	scheduler.Start()
	time.Sleep(50 * time.Millisecond)

	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestScheduler_RunNowRecordsManualRun(t *testing.T) {
	store, scheduler := schedulerFixture(t)

	runID, summary, err := scheduler.RunNow()
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.Equal(t, 1, summary.Created)

	runs, err := store.ListSweepRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "manual", runs[0].TriggerSource)
	assert.Equal(t, "completed", runs[0].Status)
	require.NotNil(t, runs[0].CompletedAt)
}
