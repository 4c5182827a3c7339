package entitlement

import "fmt"

// DateComputationError reports that one employee's due date for one kind
// could not be computed. Scoped to exactly that (employee, kind) pair; the
// rest of the pass is unaffected.
type DateComputationError struct {
	EmployeeID int64
	Kind       Kind
	Cause      error
}

func (e *DateComputationError) Error() string {
	return fmt.Sprintf("cannot compute %s due date for employee %d: %v", e.Kind, e.EmployeeID, e.Cause)
}

func (e *DateComputationError) Unwrap() error { return e.Cause }

// NotificationCreationError reports a store write failure for a single
// recipient during fan-out. Remaining recipients are still attempted.
type NotificationCreationError struct {
	EmployeeID int64
	UserID     int64
	Kind       Kind
	Cause      error
}

func (e *NotificationCreationError) Error() string {
	return fmt.Sprintf("cannot create %s notification for user %d (employee %d): %v",
		e.Kind, e.UserID, e.EmployeeID, e.Cause)
}

func (e *NotificationCreationError) Unwrap() error { return e.Cause }
