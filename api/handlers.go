/*
handlers.go - HTTP handlers for the personnel API

PURPOSE:
  CRUD over the personnel model (users, workplaces, job titles,
  qualifications, employees, orders, benefits), the notification inbox,
  and the admin entitlement-check surface.

DESIGN:
  - Thin handlers: decode, validate, delegate to the store, encode
  - Updates decode the request body over a DTO prefilled from the stored
    record, so omitted fields keep their current values
  - Store lookups return nil for missing rows; handlers map that to 404

SEE ALSO:
  - server.go: route table
  - dto.go: wire types
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/personnel-engine/hr"
	"github.com/warp/personnel-engine/store/sqlite"
)

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// =============================================================================
// AUTH
// =============================================================================

// Login verifies credentials and returns a session token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if user == nil || !CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: *user})
}

// CurrentUser returns the authenticated caller's record.
func (s *Server) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), callerID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// =============================================================================
// USERS
// =============================================================================

// ListUsers returns all user accounts.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []hr.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser creates a user account.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	role := hr.Role(req.Role)
	if role == "" {
		role = hr.RoleUser
	}

	user := hr.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
	}
	if err := s.store.CreateUser(r.Context(), &user); err != nil {
		if err == hr.ErrDuplicateUsername {
			writeError(w, http.StatusConflict, "Username already taken", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser changes a user's profile, role, or password.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	existing, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	req := createUserRequest{
		Username: existing.Username,
		Name:     existing.Name,
		Email:    existing.Email,
		Role:     string(existing.Role),
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing.Username = req.Username
	existing.Name = req.Name
	existing.Email = req.Email
	existing.Role = hr.Role(req.Role)
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		existing.PasswordHash = hash
	}

	if err := s.store.UpdateUser(r.Context(), *existing); err != nil {
		if err == hr.ErrDuplicateUsername {
			writeError(w, http.StatusConflict, "Username already taken", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// DeleteUser removes a user account.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WORKPLACES
// =============================================================================

// ListWorkplaces returns all workplaces.
func (s *Server) ListWorkplaces(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListWorkplaces(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workplaces", err)
		return
	}
	if items == nil {
		items = []hr.Workplace{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateWorkplace creates a workplace.
func (s *Server) CreateWorkplace(w http.ResponseWriter, r *http.Request) {
	var wp hr.Workplace
	if err := json.NewDecoder(r.Body).Decode(&wp); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if wp.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if err := s.store.CreateWorkplace(r.Context(), &wp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create workplace", err)
		return
	}
	writeJSON(w, http.StatusCreated, wp)
}

// UpdateWorkplace rewrites a workplace.
func (s *Server) UpdateWorkplace(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	existing, err := s.store.GetWorkplace(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get workplace", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Workplace not found", nil)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	existing.ID = id
	if err := s.store.UpdateWorkplace(r.Context(), *existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update workplace", err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// DeleteWorkplace removes a workplace.
func (s *Server) DeleteWorkplace(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Workplace",
		func(id int64) (bool, error) {
			wp, err := s.store.GetWorkplace(r.Context(), id)
			return wp != nil, err
		},
		func(id int64) error { return s.store.DeleteWorkplace(r.Context(), id) })
}

// =============================================================================
// JOB TITLES
// =============================================================================

// ListJobTitles returns all job titles.
func (s *Server) ListJobTitles(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListJobTitles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list job titles", err)
		return
	}
	if items == nil {
		items = []hr.JobTitle{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateJobTitle creates a job title.
func (s *Server) CreateJobTitle(w http.ResponseWriter, r *http.Request) {
	var jt hr.JobTitle
	if err := json.NewDecoder(r.Body).Decode(&jt); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if jt.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required", nil)
		return
	}
	if err := s.store.CreateJobTitle(r.Context(), &jt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create job title", err)
		return
	}
	writeJSON(w, http.StatusCreated, jt)
}

// UpdateJobTitle rewrites a job title.
func (s *Server) UpdateJobTitle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	existing, err := s.store.GetJobTitle(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get job title", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Job title not found", nil)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	existing.ID = id
	if err := s.store.UpdateJobTitle(r.Context(), *existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update job title", err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// DeleteJobTitle removes a job title.
func (s *Server) DeleteJobTitle(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Job title",
		func(id int64) (bool, error) {
			jt, err := s.store.GetJobTitle(r.Context(), id)
			return jt != nil, err
		},
		func(id int64) error { return s.store.DeleteJobTitle(r.Context(), id) })
}

// =============================================================================
// QUALIFICATIONS
// =============================================================================

// ListQualifications returns all qualifications.
func (s *Server) ListQualifications(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListQualifications(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list qualifications", err)
		return
	}
	if items == nil {
		items = []hr.Qualification{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateQualification creates a qualification.
func (s *Server) CreateQualification(w http.ResponseWriter, r *http.Request) {
	var q hr.Qualification
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if q.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if err := s.store.CreateQualification(r.Context(), &q); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create qualification", err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// UpdateQualification rewrites a qualification.
func (s *Server) UpdateQualification(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	existing, err := s.store.GetQualification(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get qualification", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Qualification not found", nil)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	existing.ID = id
	if err := s.store.UpdateQualification(r.Context(), *existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update qualification", err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// DeleteQualification removes a qualification.
func (s *Server) DeleteQualification(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Qualification",
		func(id int64) (bool, error) {
			q, err := s.store.GetQualification(r.Context(), id)
			return q != nil, err
		},
		func(id int64) error { return s.store.DeleteQualification(r.Context(), id) })
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns the roster.
func (s *Server) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	if employees == nil {
		employees = []hr.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

// GetEmployee returns one employee.
func (s *Server) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	emp, err := s.store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// CreateEmployee creates an employee record.
func (s *Server) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Number == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "Employee number, first name and last name are required", nil)
		return
	}
	if req.HiringDate.IsZero() {
		writeError(w, http.StatusBadRequest, "Invalid hiring_date format (use YYYY-MM-DD)", nil)
		return
	}

	emp := req.toEmployee()
	if err := s.store.CreateEmployee(r.Context(), &emp); err != nil {
		if err == hr.ErrDuplicateEmployeeNumber {
			writeError(w, http.StatusConflict, "Employee number already exists", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

// UpdateEmployee applies a partial update to an employee record.
func (s *Server) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	existing, err := s.store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	// Prefill from the stored record so a partial body only touches the
	// fields it names.
	req := employeeToRequest(*existing)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.HiringDate.IsZero() {
		writeError(w, http.StatusBadRequest, "hiring_date cannot be cleared", nil)
		return
	}

	emp := req.toEmployee()
	emp.ID = id
	if err := s.store.UpdateEmployee(r.Context(), emp); err != nil {
		if err == hr.ErrDuplicateEmployeeNumber {
			writeError(w, http.StatusConflict, "Employee number already exists", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// DeleteEmployee removes an employee.
func (s *Server) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Employee",
		func(id int64) (bool, error) {
			e, err := s.store.GetEmployee(r.Context(), id)
			return e != nil, err
		},
		func(id int64) error { return s.store.DeleteEmployee(r.Context(), id) })
}

// ListEmployeeOrders returns one employee's orders.
func (s *Server) ListEmployeeOrders(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	orders, err := s.store.ListOrdersByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}
	if orders == nil {
		orders = []hr.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListEmployeeBenefits returns one employee's benefits.
func (s *Server) ListEmployeeBenefits(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	benefits, err := s.store.ListBenefitsByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list benefits", err)
		return
	}
	if benefits == nil {
		benefits = []hr.Benefit{}
	}
	writeJSON(w, http.StatusOK, benefits)
}

// =============================================================================
// ORDERS
// =============================================================================

// defaultServiceMonths is applied when a created order does not specify
// additional service months. Ministerial appreciation letters carry six
// months, director-general letters one, everything else zero.
func defaultServiceMonths(kind hr.OrderKind, issuedBy string) int {
	if kind != hr.OrderAppreciation {
		return 0
	}
	issuer := strings.ToLower(issuedBy)
	switch {
	case strings.Contains(issuer, "minister"):
		return 6
	case strings.Contains(issuer, "director"):
		return 1
	}
	return 0
}

// ListOrders returns all orders.
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}
	if orders == nil {
		orders = []hr.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// CreateOrder creates an appreciation or disciplinary order.
func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	kind := hr.OrderKind(req.Kind)
	if kind != hr.OrderAppreciation && kind != hr.OrderDisciplinary {
		writeError(w, http.StatusBadRequest, "Kind must be appreciation or disciplinary", nil)
		return
	}
	emp, err := s.store.GetEmployee(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusBadRequest, "Employee does not exist", nil)
		return
	}

	months := defaultServiceMonths(kind, req.IssuedBy)
	if req.AddedServiceMonth != nil {
		months = *req.AddedServiceMonth
	}

	order := hr.Order{
		EmployeeID:        req.EmployeeID,
		Kind:              kind,
		Description:       req.Description,
		Date:              req.Date,
		IssuedBy:          req.IssuedBy,
		AddedServiceMonth: months,
	}
	if err := s.store.CreateOrder(r.Context(), &order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// DeleteOrder removes an order.
func (s *Server) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Order",
		func(id int64) (bool, error) {
			o, err := s.store.GetOrder(r.Context(), id)
			return o != nil, err
		},
		func(id int64) error { return s.store.DeleteOrder(r.Context(), id) })
}

// =============================================================================
// BENEFITS
// =============================================================================

// ListBenefits returns all benefits, or only pending ones with ?status=pending.
func (s *Server) ListBenefits(w http.ResponseWriter, r *http.Request) {
	var (
		benefits []hr.Benefit
		err      error
	)
	if r.URL.Query().Get("status") == "pending" {
		benefits, err = s.store.ListPendingBenefits(r.Context())
	} else {
		benefits, err = s.store.ListBenefits(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list benefits", err)
		return
	}
	if benefits == nil {
		benefits = []hr.Benefit{}
	}
	writeJSON(w, http.StatusOK, benefits)
}

// ListPendingBenefits returns benefits awaiting processing.
func (s *Server) ListPendingBenefits(w http.ResponseWriter, r *http.Request) {
	benefits, err := s.store.ListPendingBenefits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list benefits", err)
		return
	}
	if benefits == nil {
		benefits = []hr.Benefit{}
	}
	writeJSON(w, http.StatusOK, benefits)
}

// CreateBenefit records a benefit entry for an employee.
func (s *Server) CreateBenefit(w http.ResponseWriter, r *http.Request) {
	var b hr.Benefit
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if b.EmployeeID == 0 || b.Kind == "" || b.DueDate.IsZero() {
		writeError(w, http.StatusBadRequest, "employee_id, kind and due_date are required", nil)
		return
	}
	if err := s.store.CreateBenefit(r.Context(), &b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create benefit", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ProcessBenefit marks a pending benefit completed or rejected.
func (s *Server) ProcessBenefit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	var req processBenefitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status := hr.BenefitStatus(req.Status)
	if status != hr.BenefitCompleted && status != hr.BenefitRejected {
		writeError(w, http.StatusBadRequest, "Status must be completed or rejected", nil)
		return
	}

	if err := s.store.ProcessBenefit(r.Context(), id, status, callerID(r)); err != nil {
		if err == hr.ErrNotFound {
			writeError(w, http.StatusNotFound, "Benefit not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process benefit", err)
		return
	}

	benefit, err := s.store.GetBenefit(r.Context(), id)
	if err != nil || benefit == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload benefit", err)
		return
	}
	writeJSON(w, http.StatusOK, benefit)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// ListNotifications returns the caller's inbox, newest first.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.store.ListNotificationsForUser(r.Context(), callerID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}
	if notifications == nil {
		notifications = []hr.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// UnreadNotificationCount returns the caller's unread count.
func (s *Server) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountUnreadNotifications(r.Context(), callerID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkNotificationRead marks one notification read.
func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	if err := s.store.MarkNotificationRead(r.Context(), id); err != nil {
		if err == hr.ErrNotFound {
			writeError(w, http.StatusNotFound, "Notification not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead marks the caller's whole inbox read.
func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkAllNotificationsRead(r.Context(), callerID(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark notifications read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification removes a notification.
func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	if err := s.store.DeleteNotification(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeNotifications upgrades to a websocket that receives the caller's
// notifications as they are created.
func (s *Server) SubscribeNotifications(w http.ResponseWriter, r *http.Request) {
	ServeWs(s.hub, w, r, callerID(r))
}

// =============================================================================
// ENTITLEMENT CHECKS
// =============================================================================

// TriggerEntitlementCheck runs an entitlement pass immediately.
func (s *Server) TriggerEntitlementCheck(w http.ResponseWriter, r *http.Request) {
	runID, summary, err := s.scheduler.RunNow()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Entitlement check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, entitlementCheckResponse{
		RunID: runID,
		Summary: entitlementSummary{
			Employees:    summary.Employees,
			Created:      summary.Created,
			Deduplicated: summary.Deduplicated,
			Failures:     summary.Failures,
		},
	})
}

// ListSweepRuns returns recent entitlement pass records, newest first.
func (s *Server) ListSweepRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	runs, err := s.store.ListSweepRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sweep runs", err)
		return
	}
	if runs == nil {
		runs = []sqlite.SweepRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, name string,
	exists func(int64) (bool, error), del func(int64) error) {

	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return
	}
	found, err := exists(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get "+strings.ToLower(name), err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, name+" not found", nil)
		return
	}
	if err := del(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete "+strings.ToLower(name), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
