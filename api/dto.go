/*
Request and response types for the HTTP API.

PURPOSE:
  Decouples the wire format from the domain types. Pointer fields in the
  update requests distinguish "absent" from "zero", so PATCH-style partial
  updates work with a single decode.
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/personnel-engine/hr"
)

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  hr.User `json:"user"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// --- Employees ---

type employeeRequest struct {
	Number          string          `json:"employee_number"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone_number"`
	DateOfBirth     hr.Date         `json:"date_of_birth"`
	HiringDate      hr.Date         `json:"hiring_date"`
	RetirementDate  hr.Date         `json:"retirement_date"`
	WorkplaceID     *int64          `json:"workplace_id"`
	JobTitleID      *int64          `json:"job_title_id"`
	QualificationID *int64          `json:"qualification_id"`
	CurrentGrade    int             `json:"current_grade"`
	LastPromotion   hr.Date         `json:"last_promotion_date"`
	LastAllowance   hr.Date         `json:"last_allowance_date"`
	Salary          decimal.Decimal `json:"salary"`
	Status          string          `json:"status"`
}

func (req employeeRequest) toEmployee() hr.Employee {
	return hr.Employee{
		Number:          req.Number,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		FullName:        req.FirstName + " " + req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		DateOfBirth:     req.DateOfBirth,
		HiringDate:      req.HiringDate,
		RetirementDate:  req.RetirementDate,
		WorkplaceID:     req.WorkplaceID,
		JobTitleID:      req.JobTitleID,
		QualificationID: req.QualificationID,
		CurrentGrade:    req.CurrentGrade,
		LastPromotion:   req.LastPromotion,
		LastAllowance:   req.LastAllowance,
		Salary:          req.Salary,
		Status:          hr.EmployeeStatus(req.Status),
	}
}

func employeeToRequest(e hr.Employee) employeeRequest {
	return employeeRequest{
		Number:          e.Number,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		Email:           e.Email,
		Phone:           e.Phone,
		DateOfBirth:     e.DateOfBirth,
		HiringDate:      e.HiringDate,
		RetirementDate:  e.RetirementDate,
		WorkplaceID:     e.WorkplaceID,
		JobTitleID:      e.JobTitleID,
		QualificationID: e.QualificationID,
		CurrentGrade:    e.CurrentGrade,
		LastPromotion:   e.LastPromotion,
		LastAllowance:   e.LastAllowance,
		Salary:          e.Salary,
		Status:          string(e.Status),
	}
}

// --- Orders ---

type orderRequest struct {
	EmployeeID        int64   `json:"employee_id"`
	Kind              string  `json:"kind"`
	Description       string  `json:"description"`
	Date              hr.Date `json:"order_date"`
	IssuedBy          string  `json:"issued_by"`
	AddedServiceMonth *int    `json:"additional_service_months"`
}

// --- Benefits ---

type processBenefitRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// --- Entitlement checks ---

type entitlementCheckResponse struct {
	RunID   string             `json:"run_id"`
	Summary entitlementSummary `json:"summary"`
}

type entitlementSummary struct {
	Employees    int `json:"employees"`
	Created      int `json:"created"`
	Deduplicated int `json:"deduplicated"`
	Failures     int `json:"failures"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
