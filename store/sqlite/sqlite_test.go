package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/personnel-engine/hr"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmployeeRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	wp := hr.Workplace{Name: "Head Office"}
	require.NoError(t, store.CreateWorkplace(ctx, &wp))

	e := hr.Employee{
		Number:       "EMP-0001",
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.org",
		HiringDate:   hr.NewDate(2020, 3, 10),
		WorkplaceID:  &wp.ID,
		CurrentGrade: 3,
		Salary:       decimal.RequireFromString("52000.50"),
	}
	require.NoError(t, store.CreateEmployee(ctx, &e))
	require.NotZero(t, e.ID)

	got, err := store.GetEmployee(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "EMP-0001", got.Number)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.True(t, got.HiringDate.Equal(hr.NewDate(2020, 3, 10)))
	assert.True(t, got.Salary.Equal(decimal.RequireFromString("52000.50")))
	assert.Equal(t, hr.StatusActive, got.Status)
	require.NotNil(t, got.WorkplaceID)
	assert.Equal(t, wp.ID, *got.WorkplaceID)
}

func TestEmployeeNumberUniqueness(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := hr.Employee{Number: "EMP-1", FirstName: "A", LastName: "B", HiringDate: hr.NewDate(2020, 1, 1)}
	require.NoError(t, store.CreateEmployee(ctx, &first))

	dup := hr.Employee{Number: "EMP-1", FirstName: "C", LastName: "D", HiringDate: hr.NewDate(2021, 1, 1)}
	err := store.CreateEmployee(ctx, &dup)
	assert.ErrorIs(t, err, hr.ErrDuplicateEmployeeNumber)
}

func TestGetEmployee_NotFound(t *testing.T) {
	store := newStore(t)
	got, err := store.GetEmployee(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAdminUsers_FiltersByRole(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, u := range []hr.User{
		{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin},
		{Username: "manager", PasswordHash: "x", Name: "M", Role: hr.RoleManager},
		{Username: "plain", PasswordHash: "x", Name: "P", Role: hr.RoleUser},
	} {
		u := u
		require.NoError(t, store.CreateUser(ctx, &u))
	}

	admins, err := store.ListAdminUsers(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	for _, a := range admins {
		assert.True(t, a.Role.IsAdministrative())
	}
}

func TestDuplicateUsername(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	u := hr.User{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, &u))

	dup := hr.User{Username: "admin", PasswordHash: "y", Name: "B", Role: hr.RoleUser}
	assert.ErrorIs(t, store.CreateUser(ctx, &dup), hr.ErrDuplicateUsername)
}

func TestNotificationUniquenessConstraint(t *testing.T) {
	// GIVEN a persisted entitlement notification
	store := newStore(t)
	ctx := context.Background()

	u := hr.User{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, &u))

	due := hr.NewDate(2024, 6, 15)
	relatedID := int64(7)
	n := hr.Notification{
		UserID:      &u.ID,
		Title:       "Allowance due soon",
		Message:     "Employee Jane Doe is due for an annual salary allowance on 2024-06-15",
		Type:        "allowance",
		RelatedID:   &relatedID,
		RelatedType: hr.RelatedTypeEmployee,
		DueDate:     due,
	}
	require.NoError(t, store.CreateNotification(ctx, &n))

	// WHEN an identical notification is inserted again
	again := n
	again.ID = 0
	err := store.CreateNotification(ctx, &again)

	// THEN the unique index rejects it
	assert.ErrorIs(t, err, hr.ErrDuplicateNotification)

	// AND a different due date for the same employee/kind is accepted
	other := n
	other.ID = 0
	other.DueDate = due.AddYears(1)
	assert.NoError(t, store.CreateNotification(ctx, &other))
}

func TestFindEntitlementNotifications(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	u := hr.User{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, &u))

	due := hr.NewDate(2024, 6, 15)
	relatedID := int64(3)
	n := hr.Notification{
		UserID: &u.ID, Title: "t", Message: "m", Type: "allowance",
		RelatedID: &relatedID, RelatedType: hr.RelatedTypeEmployee, DueDate: due,
	}
	require.NoError(t, store.CreateNotification(ctx, &n))

	found, err := store.FindEntitlementNotifications(ctx, relatedID, "allowance", due)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// Different kind, employee or due date: no match.
	found, err = store.FindEntitlementNotifications(ctx, relatedID, "promotion", due)
	require.NoError(t, err)
	assert.Empty(t, found)
	found, err = store.FindEntitlementNotifications(ctx, 99, "allowance", due)
	require.NoError(t, err)
	assert.Empty(t, found)
	found, err = store.FindEntitlementNotifications(ctx, relatedID, "allowance", due.AddDays(1))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestNotificationInbox(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	u := hr.User{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, &u))

	n := hr.Notification{UserID: &u.ID, Title: "t", Message: "m", Type: "system"}
	require.NoError(t, store.CreateNotification(ctx, &n))
	broadcast := hr.Notification{Title: "b", Message: "all hands", Type: "system"}
	require.NoError(t, store.CreateNotification(ctx, &broadcast))

	inbox, err := store.ListNotificationsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)

	count, err := store.CountUnreadNotifications(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.MarkNotificationRead(ctx, n.ID))
	count, err = store.CountUnreadNotifications(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.MarkAllNotificationsRead(ctx, u.ID))
	count, err = store.CountUnreadNotifications(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBenefitProcessing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	u := hr.User{Username: "admin", PasswordHash: "x", Name: "A", Role: hr.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, &u))
	e := hr.Employee{Number: "EMP-1", FirstName: "A", LastName: "B", HiringDate: hr.NewDate(2020, 1, 1)}
	require.NoError(t, store.CreateEmployee(ctx, &e))

	b := hr.Benefit{EmployeeID: e.ID, Kind: "allowance", DueDate: hr.NewDate(2024, 6, 15)}
	require.NoError(t, store.CreateBenefit(ctx, &b))
	assert.Equal(t, hr.BenefitPending, b.Status)

	pending, err := store.ListPendingBenefits(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.ProcessBenefit(ctx, b.ID, hr.BenefitCompleted, u.ID))

	got, err := store.GetBenefit(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, hr.BenefitCompleted, got.Status)
	require.NotNil(t, got.ProcessedAt)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, u.ID, *got.ProcessedBy)

	pending, err = store.ListPendingBenefits(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, store.ProcessBenefit(ctx, 9999, hr.BenefitRejected, u.ID), hr.ErrNotFound)
}

func TestSweepRunAudit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	run := SweepRun{ID: "run-1", TriggerSource: "manual", Status: "running"}
	require.NoError(t, store.SaveSweepRun(ctx, run))

	run.Status = "completed"
	run.Created = 3
	require.NoError(t, store.SaveSweepRun(ctx, run))

	runs, err := store.ListSweepRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 3, runs[0].Created)
}

func TestOrderCascadeOnEmployeeDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	e := hr.Employee{Number: "EMP-1", FirstName: "A", LastName: "B", HiringDate: hr.NewDate(2020, 1, 1)}
	require.NoError(t, store.CreateEmployee(ctx, &e))
	o := hr.Order{EmployeeID: e.ID, Kind: hr.OrderAppreciation, Description: "letter", Date: hr.NewDate(2024, 1, 1), IssuedBy: "Minister"}
	require.NoError(t, store.CreateOrder(ctx, &o))

	require.NoError(t, store.DeleteEmployee(ctx, e.ID))

	orders, err := store.ListOrdersByEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
