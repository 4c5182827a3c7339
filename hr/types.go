/*
Package hr defines the personnel domain model.

PURPOSE:
  These are the records the rest of the system moves around: employees,
  the users who administer them, the organizational lookups (workplaces,
  job titles, qualifications), formal orders (appreciation/disciplinary
  books), benefit entitlements, and notifications.

DESIGN PRINCIPLES:
  1. Plain data: no behavior beyond small predicates; persistence and HTTP
     shaping live elsewhere
  2. Date-only semantics: every calendar field is an hr.Date, never a
     timestamp (see date.go)
  3. Nullable fields are pointers so "absent" survives JSON and SQL intact

SEE ALSO:
  - entitlement/: The scheduler core that consumes Employee and produces
    Notification rows
  - store/sqlite/: Persistence for all of these
*/
package hr

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USERS
// =============================================================================

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// IsAdministrative reports whether the role receives entitlement
// notifications and may manage records.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is an HR administrator account.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Role         Role   `json:"role"`
}

// =============================================================================
// ORGANIZATIONAL LOOKUPS
// =============================================================================

type Workplace struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type JobTitle struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Grade       int    `json:"grade"`
}

type Qualification struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeStatus string

const (
	StatusActive    EmployeeStatus = "active"
	StatusRetired   EmployeeStatus = "retired"
	StatusSuspended EmployeeStatus = "suspended"
)

// Employee is the central personnel record. HiringDate is required; every
// entitlement computation is derived from it.
type Employee struct {
	ID              int64           `json:"id"`
	Number          string          `json:"employee_number"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone_number,omitempty"`
	DateOfBirth     Date            `json:"date_of_birth,omitempty"`
	HiringDate      Date            `json:"hiring_date"`
	RetirementDate  Date            `json:"retirement_date,omitempty"`
	WorkplaceID     *int64          `json:"workplace_id,omitempty"`
	JobTitleID      *int64          `json:"job_title_id,omitempty"`
	QualificationID *int64          `json:"qualification_id,omitempty"`
	CurrentGrade    int             `json:"current_grade"`
	LastPromotion   Date            `json:"last_promotion_date,omitempty"`
	LastAllowance   Date            `json:"last_allowance_date,omitempty"`
	Salary          decimal.Decimal `json:"salary"`
	Status          EmployeeStatus  `json:"status"`
}

// DisplayName falls back to first+last when the stored full name is empty.
func (e Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.FirstName + " " + e.LastName
}

// =============================================================================
// ORDERS (appreciation / disciplinary books)
// =============================================================================

type OrderKind string

const (
	OrderAppreciation OrderKind = "appreciation"
	OrderDisciplinary OrderKind = "disciplinary"
)

// Order is a formal administrative order issued against an employee.
// Appreciation orders may add service months that count toward seniority;
// disciplinary orders never do.
type Order struct {
	ID                int64     `json:"id"`
	EmployeeID        int64     `json:"employee_id"`
	Kind              OrderKind `json:"kind"`
	Description       string    `json:"description"`
	Date              Date      `json:"date"`
	IssuedBy          string    `json:"issued_by"`
	AddedServiceMonth int       `json:"additional_service_months"`
}

// =============================================================================
// BENEFITS (recorded allowance / promotion decisions)
// =============================================================================

type BenefitStatus string

const (
	BenefitPending   BenefitStatus = "pending"
	BenefitCompleted BenefitStatus = "completed"
	BenefitRejected  BenefitStatus = "rejected"
)

// Benefit is a recorded allowance or promotion entitlement awaiting formal
// processing. Kind uses the same values as notification types ("allowance",
// "promotion").
type Benefit struct {
	ID          int64         `json:"id"`
	EmployeeID  int64         `json:"employee_id"`
	Kind        string        `json:"kind"`
	DueDate     Date          `json:"due_date"`
	Status      BenefitStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
	ProcessedBy *int64        `json:"processed_by,omitempty"`
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notification is an inbox entry for one user. A nil UserID means broadcast.
//
// DueDate is the structured half of the dedup key: scheduler-produced
// notifications for the same (related entity, type, due date) are created at
// most once per recipient, enforced by the store. The ISO date also appears
// inside Message for display.
type Notification struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	RelatedID   *int64    `json:"related_id,omitempty"`
	RelatedType string    `json:"related_type,omitempty"`
	DueDate     Date      `json:"due_date,omitempty"`
}

// RelatedTypeEmployee tags notifications whose RelatedID is an employee id.
const RelatedTypeEmployee = "employee"
