/*
Package entitlement implements the date-driven entitlement core.

PURPOSE:
  Computes, for every employee, when the next salary allowance and grade
  promotion fall due; decides which of those dates warrant a notification
  right now; and fans qualifying events out to every administrator,
  exactly once per (employee, kind, due date).

KEY CONCEPTS:
  - Event: a transient (employee, kind, due date) fact. Never persisted;
    its only trace is the notifications it produces.
  - Sweeper: one full pass over the roster (sweep.go)
  - Calculator: pure next-due-date arithmetic (calculator.go)
  - Window: inclusive look-ahead horizons per kind (window.go)

DESIGN PRINCIPLES:
  1. Purity where possible: calculator and window functions take "today"
     explicitly so tests never wait on real clocks
  2. Failure isolation: one employee, one kind, one recipient at a time.
     Nothing here is fatal to a pass, and no pass failure is fatal to the
     process

SEE ALSO:
  - sweep.go: Orchestration and fan-out
  - api/scheduler.go: Recurring invocation
*/
package entitlement

import "github.com/warp/personnel-engine/hr"

// Kind identifies an entitlement cycle.
type Kind string

const (
	// KindAllowance recurs annually on the hire-date anniversary.
	KindAllowance Kind = "allowance"
	// KindPromotion recurs every four years from the hire date.
	KindPromotion Kind = "promotion"
	// KindRetirement is not cyclic: it fires once when a recorded
	// retirement date approaches.
	KindRetirement Kind = "retirement"
)

// Event is a computed entitlement fact: employee X has entitlement Kind
// falling due on DueDate. Recomputed fresh on every pass.
type Event struct {
	EmployeeID int64
	Kind       Kind
	DueDate    hr.Date
}
