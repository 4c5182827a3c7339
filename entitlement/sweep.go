/*
sweep.go - One full entitlement pass over the roster

PURPOSE:
  For every employee: compute the next allowance and promotion due dates,
  keep the ones inside their look-ahead window, drop the ones already
  notified, and fan the rest out to every administrator.

DATA FLOW:
  EmployeeSource -> calculator -> window -> NotificationStore (dedup read)
  -> NotificationStore (fan-out writes)

IDEMPOTENCE:
  Running a pass twice with no intervening state change creates nothing the
  second time. Two layers guarantee this:
  1. The pass checks for existing notifications per (employee, kind, due
     date) before fanning out.
  2. The store's uniqueness constraint rejects duplicates that slip past a
     concurrent pass; the sweeper treats that rejection as "already
     notified", not as a failure.

FAILURE ISOLATION:
  A bad hire date skips one (employee, kind) pair. A failed write skips one
  recipient. Only a failure to list employees or administrators aborts the
  pass, because nothing useful can happen without them.

SEE ALSO:
  - api/scheduler.go: Recurring and on-demand invocation
  - store/sqlite: The uniqueness constraint
*/
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/personnel-engine/hr"
)

// EmployeeSource lists the roster. The sweeper reads the full set each
// pass and never caches across passes.
type EmployeeSource interface {
	ListEmployees(ctx context.Context) ([]hr.Employee, error)
}

// AdminSource lists the users with an administrative capability
// (role admin or manager).
type AdminSource interface {
	ListAdminUsers(ctx context.Context) ([]hr.User, error)
}

// NotificationStore is the narrow write-side contract the sweeper needs.
type NotificationStore interface {
	// FindEntitlementNotifications returns notifications already created
	// for this (related entity, type, due date) triple, any recipient.
	FindEntitlementNotifications(ctx context.Context, relatedID int64, typ string, due hr.Date) ([]hr.Notification, error)
	// CreateNotification persists one notification. Returns
	// hr.ErrDuplicateNotification when the uniqueness constraint rejects it.
	CreateNotification(ctx context.Context, n *hr.Notification) error
}

// Announcer receives each notification after it is persisted, for live
// delivery (websocket push). Optional; losses here are harmless because
// the inbox is the source of truth.
type Announcer interface {
	NotificationCreated(n hr.Notification)
}

// Summary reports what one pass did.
type Summary struct {
	Employees    int       `json:"employees"`
	Created      int       `json:"notifications_created"`
	Deduplicated int       `json:"deduplicated"`
	Failures     int       `json:"failures"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Sweeper performs entitlement passes. Safe for concurrent use: a mutex
// serializes passes so an on-demand trigger cannot overlap the scheduled
// one.
type Sweeper struct {
	Employees     EmployeeSource
	Users         AdminSource
	Notifications NotificationStore
	// Announcer is optional; Now is the injectable clock.
	Announcer Announcer
	Now       func() hr.Date
	Log       logrus.FieldLogger

	mu sync.Mutex
}

// NewSweeper wires a sweeper with the real clock and the default logger.
func NewSweeper(employees EmployeeSource, users AdminSource, notifications NotificationStore) *Sweeper {
	return &Sweeper{
		Employees:     employees,
		Users:         users,
		Notifications: notifications,
		Now:           hr.Today,
		Log:           logrus.WithField("component", "sweeper"),
	}
}

// Run performs one full pass. The returned error covers only pass-level
// failures (roster or admin listing); per-employee and per-recipient
// failures are counted in the summary and logged.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{StartedAt: time.Now().UTC()}
	today := s.Now()

	employees, err := s.Employees.ListEmployees(ctx)
	if err != nil {
		sweepPassesTotal.WithLabelValues("error").Inc()
		return sum, fmt.Errorf("list employees: %w", err)
	}
	admins, err := s.Users.ListAdminUsers(ctx)
	if err != nil {
		sweepPassesTotal.WithLabelValues("error").Inc()
		return sum, fmt.Errorf("list administrators: %w", err)
	}

	sum.Employees = len(employees)
	s.Log.WithFields(logrus.Fields{
		"today":      today.String(),
		"employees":  len(employees),
		"recipients": len(admins),
	}).Info("entitlement sweep started")

	for _, emp := range employees {
		if ctx.Err() != nil {
			sum.CompletedAt = time.Now().UTC()
			sweepPassesTotal.WithLabelValues("cancelled").Inc()
			return sum, ctx.Err()
		}

		for _, kind := range []Kind{KindAllowance, KindPromotion} {
			due, err := s.nextDue(kind, emp, today)
			if err != nil {
				sum.Failures++
				sweepFailuresTotal.WithLabelValues("calculator").Inc()
				s.Log.WithError(err).Warn("skipping entitlement computation")
				continue
			}
			if !kind.DueNow(due, today) {
				continue
			}
			s.notify(ctx, emp, Event{EmployeeID: emp.ID, Kind: kind, DueDate: due}, admins, &sum)
		}

		// Retirement has no computed cycle: the recorded date is the due date.
		if !emp.RetirementDate.IsZero() && KindRetirement.DueNow(emp.RetirementDate, today) {
			s.notify(ctx, emp, Event{EmployeeID: emp.ID, Kind: KindRetirement, DueDate: emp.RetirementDate}, admins, &sum)
		}
	}

	sum.CompletedAt = time.Now().UTC()
	sweepPassesTotal.WithLabelValues("ok").Inc()
	s.Log.WithFields(logrus.Fields{
		"created":      sum.Created,
		"deduplicated": sum.Deduplicated,
		"failures":     sum.Failures,
	}).Info("entitlement sweep completed")
	return sum, nil
}

func (s *Sweeper) nextDue(kind Kind, emp hr.Employee, today hr.Date) (hr.Date, error) {
	var (
		due hr.Date
		err error
	)
	switch kind {
	case KindPromotion:
		due, err = NextPromotionDate(emp.HiringDate, today)
	default:
		due, err = NextAllowanceDate(emp.HiringDate, today)
	}
	if err != nil {
		return hr.Date{}, &DateComputationError{EmployeeID: emp.ID, Kind: kind, Cause: err}
	}
	return due, nil
}

// notify deduplicates one event and, if it is new, creates one notification
// per administrator.
func (s *Sweeper) notify(ctx context.Context, emp hr.Employee, ev Event, admins []hr.User, sum *Summary) {
	existing, err := s.Notifications.FindEntitlementNotifications(ctx, ev.EmployeeID, string(ev.Kind), ev.DueDate)
	if err != nil {
		sum.Failures++
		sweepFailuresTotal.WithLabelValues("dedup").Inc()
		s.Log.WithError(err).WithFields(logrus.Fields{
			"employee": ev.EmployeeID, "kind": ev.Kind,
		}).Error("dedup lookup failed")
		return
	}
	if len(existing) > 0 {
		sum.Deduplicated++
		return
	}

	title, message := composeNotification(emp, ev.Kind, ev.DueDate)
	relatedID := ev.EmployeeID

	for _, admin := range admins {
		userID := admin.ID
		n := &hr.Notification{
			UserID:      &userID,
			Title:       title,
			Message:     message,
			Type:        string(ev.Kind),
			RelatedID:   &relatedID,
			RelatedType: hr.RelatedTypeEmployee,
			DueDate:     ev.DueDate,
		}
		err := s.Notifications.CreateNotification(ctx, n)
		switch {
		case errors.Is(err, hr.ErrDuplicateNotification):
			// Lost a race with a concurrent pass. Already delivered.
			sum.Deduplicated++
		case err != nil:
			sum.Failures++
			sweepFailuresTotal.WithLabelValues("fanout").Inc()
			s.Log.WithError(&NotificationCreationError{
				EmployeeID: ev.EmployeeID, UserID: admin.ID, Kind: ev.Kind, Cause: err,
			}).Error("notification write failed, continuing with remaining recipients")
		default:
			sum.Created++
			notificationsCreatedTotal.WithLabelValues(string(ev.Kind)).Inc()
			if s.Announcer != nil {
				s.Announcer.NotificationCreated(*n)
			}
		}
	}
}

// composeNotification builds the user-visible text. The ISO due date is
// embedded in the message so the inbox entry is self-describing.
func composeNotification(emp hr.Employee, kind Kind, due hr.Date) (title, message string) {
	name := emp.DisplayName()
	switch kind {
	case KindPromotion:
		return "Promotion due soon",
			fmt.Sprintf("Employee %s is due for a grade promotion on %s", name, due)
	case KindRetirement:
		return "Upcoming retirement",
			fmt.Sprintf("Employee %s is scheduled to retire on %s", name, due)
	default:
		return "Allowance due soon",
			fmt.Sprintf("Employee %s is due for an annual salary allowance on %s", name, due)
	}
}
