/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Persists the whole personnel model: users, organizational lookups,
  employees, orders, benefits, notifications and sweep-run audit rows.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

DEDUP ENFORCEMENT:
  The notifications table carries a structured due_date column, and a
  partial unique index on (user_id, type, related_type, related_id,
  due_date) rejects duplicate entitlement notifications at the database
  level. This is the backstop behind the sweeper's read-before-write
  dedup: even two concurrent passes cannot double-notify.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time, better crash
  recovery.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/personnel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - entitlement/sweep.go: The interfaces this store satisfies
  - api/handlers.go: The CRUD consumers
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/personnel-engine/hr"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer anyway, and a pooled
	// ":memory:" database would otherwise be one database per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL DEFAULT 'user'
	);

	CREATE TABLE IF NOT EXISTS workplaces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS job_titles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		grade INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS qualifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		level INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_number TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT,
		phone_number TEXT,
		date_of_birth TEXT,
		hiring_date TEXT NOT NULL,
		retirement_date TEXT,
		workplace_id INTEGER REFERENCES workplaces(id),
		job_title_id INTEGER REFERENCES job_titles(id),
		qualification_id INTEGER REFERENCES qualifications(id),
		current_grade INTEGER NOT NULL,
		last_promotion_date TEXT,
		last_allowance_date TEXT,
		salary TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_employees_status ON employees(status);
	CREATE INDEX IF NOT EXISTS idx_employees_workplace ON employees(workplace_id);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		order_date TEXT NOT NULL,
		issued_by TEXT NOT NULL,
		additional_service_months INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_orders_employee ON orders(employee_id);

	CREATE TABLE IF NOT EXISTS benefits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		notes TEXT,
		processed_at TEXT,
		processed_by INTEGER REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_benefits_employee ON benefits(employee_id);
	CREATE INDEX IF NOT EXISTS idx_benefits_status ON benefits(status);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		related_id INTEGER,
		related_type TEXT,
		due_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_dedup
		ON notifications(related_id, type, related_type, due_date);

	-- CRITICAL: at most one entitlement notification per recipient for a
	-- given (type, related entity, due date). The sweeper relies on this
	-- to stay idempotent even across concurrent passes.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_entitlement_key
		ON notifications(user_id, type, related_type, related_id, due_date)
		WHERE due_date IS NOT NULL;

	-- Sweep Runs (audit of scheduler passes)
	CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		trigger_source TEXT NOT NULL DEFAULT 'schedule',
		status TEXT NOT NULL DEFAULT 'running',
		employees INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0,
		deduplicated INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sweep_runs_created ON sweep_runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser inserts a user and fills in its assigned id.
func (s *Store) CreateUser(ctx context.Context, u *hr.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, name, email, role) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Name, nullString(u.Email), string(u.Role),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return hr.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

// GetUser retrieves a user by id. Returns nil when not found.
func (s *Store) GetUser(ctx context.Context, id int64) (*hr.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, email, role FROM users WHERE id = ?`, id))
}

// GetUserByUsername retrieves a user by username. Returns nil when not found.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*hr.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, email, role FROM users WHERE username = ?`, username))
}

func scanUser(row *sql.Row) (*hr.User, error) {
	var (
		u     hr.User
		email sql.NullString
		role  string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &email, &role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Email = email.String
	u.Role = hr.Role(role)
	return &u, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]hr.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, username, password_hash, name, email, role FROM users ORDER BY username`)
}

// ListAdminUsers returns users with an administrative role (admin or
// manager). This is the fan-out recipient set.
func (s *Store) ListAdminUsers(ctx context.Context) ([]hr.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, username, password_hash, name, email, role FROM users
		 WHERE role IN ('admin', 'manager') ORDER BY id`)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]hr.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []hr.User
	for rows.Next() {
		var (
			u     hr.User
			email sql.NullString
			role  string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &email, &role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Email = email.String
		u.Role = hr.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of user accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// UpdateUser rewrites a user record.
func (s *Store) UpdateUser(ctx context.Context, u hr.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, password_hash = ?, name = ?, email = ?, role = ? WHERE id = ?`,
		u.Username, u.PasswordHash, u.Name, nullString(u.Email), string(u.Role), u.ID,
	)
	if err != nil && isUniqueConstraintError(err) {
		return hr.ErrDuplicateUsername
	}
	return err
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// =============================================================================
// ORGANIZATIONAL LOOKUPS
// =============================================================================

// CreateWorkplace inserts a workplace and fills in its assigned id.
func (s *Store) CreateWorkplace(ctx context.Context, w *hr.Workplace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workplaces (name, description) VALUES (?, ?)`,
		w.Name, nullString(w.Description))
	if err != nil {
		return fmt.Errorf("failed to create workplace: %w", err)
	}
	w.ID, _ = res.LastInsertId()
	return nil
}

// GetWorkplace retrieves a workplace by id. Returns nil when not found.
func (s *Store) GetWorkplace(ctx context.Context, id int64) (*hr.Workplace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w    hr.Workplace
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM workplaces WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &desc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Description = desc.String
	return &w, nil
}

// ListWorkplaces returns all workplaces.
func (s *Store) ListWorkplaces(ctx context.Context) ([]hr.Workplace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM workplaces ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.Workplace
	for rows.Next() {
		var (
			w    hr.Workplace
			desc sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.Name, &desc); err != nil {
			return nil, err
		}
		w.Description = desc.String
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWorkplace rewrites a workplace record.
func (s *Store) UpdateWorkplace(ctx context.Context, w hr.Workplace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE workplaces SET name = ?, description = ? WHERE id = ?`,
		w.Name, nullString(w.Description), w.ID)
	return err
}

// DeleteWorkplace removes a workplace.
func (s *Store) DeleteWorkplace(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM workplaces WHERE id = ?`, id)
	return err
}

// CreateJobTitle inserts a job title and fills in its assigned id.
func (s *Store) CreateJobTitle(ctx context.Context, j *hr.JobTitle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_titles (title, description, grade) VALUES (?, ?, ?)`,
		j.Title, nullString(j.Description), j.Grade)
	if err != nil {
		return fmt.Errorf("failed to create job title: %w", err)
	}
	j.ID, _ = res.LastInsertId()
	return nil
}

// GetJobTitle retrieves a job title by id. Returns nil when not found.
func (s *Store) GetJobTitle(ctx context.Context, id int64) (*hr.JobTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		j    hr.JobTitle
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, grade FROM job_titles WHERE id = ?`, id,
	).Scan(&j.ID, &j.Title, &desc, &j.Grade)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.Description = desc.String
	return &j, nil
}

// ListJobTitles returns all job titles.
func (s *Store) ListJobTitles(ctx context.Context) ([]hr.JobTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, grade FROM job_titles ORDER BY grade, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.JobTitle
	for rows.Next() {
		var (
			j    hr.JobTitle
			desc sql.NullString
		)
		if err := rows.Scan(&j.ID, &j.Title, &desc, &j.Grade); err != nil {
			return nil, err
		}
		j.Description = desc.String
		out = append(out, j)
	}
	return out, rows.Err()
}

// UpdateJobTitle rewrites a job title record.
func (s *Store) UpdateJobTitle(ctx context.Context, j hr.JobTitle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE job_titles SET title = ?, description = ?, grade = ? WHERE id = ?`,
		j.Title, nullString(j.Description), j.Grade, j.ID)
	return err
}

// DeleteJobTitle removes a job title.
func (s *Store) DeleteJobTitle(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM job_titles WHERE id = ?`, id)
	return err
}

// CreateQualification inserts a qualification and fills in its assigned id.
func (s *Store) CreateQualification(ctx context.Context, q *hr.Qualification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO qualifications (name, description, level) VALUES (?, ?, ?)`,
		q.Name, nullString(q.Description), q.Level)
	if err != nil {
		return fmt.Errorf("failed to create qualification: %w", err)
	}
	q.ID, _ = res.LastInsertId()
	return nil
}

// GetQualification retrieves a qualification by id. Returns nil when not found.
func (s *Store) GetQualification(ctx context.Context, id int64) (*hr.Qualification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		q    hr.Qualification
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, level FROM qualifications WHERE id = ?`, id,
	).Scan(&q.ID, &q.Name, &desc, &q.Level)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	q.Description = desc.String
	return &q, nil
}

// ListQualifications returns all qualifications.
func (s *Store) ListQualifications(ctx context.Context) ([]hr.Qualification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, level FROM qualifications ORDER BY level, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.Qualification
	for rows.Next() {
		var (
			q    hr.Qualification
			desc sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.Name, &desc, &q.Level); err != nil {
			return nil, err
		}
		q.Description = desc.String
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQualification rewrites a qualification record.
func (s *Store) UpdateQualification(ctx context.Context, q hr.Qualification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE qualifications SET name = ?, description = ?, level = ? WHERE id = ?`,
		q.Name, nullString(q.Description), q.Level, q.ID)
	return err
}

// DeleteQualification removes a qualification.
func (s *Store) DeleteQualification(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM qualifications WHERE id = ?`, id)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, employee_number, first_name, last_name, full_name, email,
	phone_number, date_of_birth, hiring_date, retirement_date, workplace_id,
	job_title_id, qualification_id, current_grade, last_promotion_date,
	last_allowance_date, salary, status`

// CreateEmployee inserts an employee and fills in its assigned id.
// The stored full name is derived from first+last when absent.
func (s *Store) CreateEmployee(ctx context.Context, e *hr.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.FullName == "" {
		e.FullName = e.FirstName + " " + e.LastName
	}
	if e.Status == "" {
		e.Status = hr.StatusActive
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO employees
		(employee_number, first_name, last_name, full_name, email, phone_number,
		 date_of_birth, hiring_date, retirement_date, workplace_id, job_title_id,
		 qualification_id, current_grade, last_promotion_date, last_allowance_date,
		 salary, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Number, e.FirstName, e.LastName, e.FullName,
		nullString(e.Email), nullString(e.Phone),
		e.DateOfBirth, e.HiringDate, e.RetirementDate,
		e.WorkplaceID, e.JobTitleID, e.QualificationID,
		e.CurrentGrade, e.LastPromotion, e.LastAllowance,
		e.Salary.String(), string(e.Status),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return hr.ErrDuplicateEmployeeNumber
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// GetEmployee retrieves an employee by id. Returns nil when not found.
func (s *Store) GetEmployee(ctx context.Context, id int64) (*hr.Employee, error) {
	employees, err := s.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	if err != nil || len(employees) == 0 {
		return nil, err
	}
	return &employees[0], nil
}

// GetEmployeeByNumber retrieves an employee by its unique employee number.
func (s *Store) GetEmployeeByNumber(ctx context.Context, number string) (*hr.Employee, error) {
	employees, err := s.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE employee_number = ?`, number)
	if err != nil || len(employees) == 0 {
		return nil, err
	}
	return &employees[0], nil
}

// ListEmployees returns the full roster. The sweeper reads this every pass.
func (s *Store) ListEmployees(ctx context.Context) ([]hr.Employee, error) {
	return s.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY employee_number`)
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]hr.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []hr.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(rows *sql.Rows) (hr.Employee, error) {
	var (
		e            hr.Employee
		email, phone sql.NullString
		salary       string
		status       string
	)
	err := rows.Scan(
		&e.ID, &e.Number, &e.FirstName, &e.LastName, &e.FullName,
		&email, &phone,
		&e.DateOfBirth, &e.HiringDate, &e.RetirementDate,
		&e.WorkplaceID, &e.JobTitleID, &e.QualificationID,
		&e.CurrentGrade, &e.LastPromotion, &e.LastAllowance,
		&salary, &status,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}
	e.Email = email.String
	e.Phone = phone.String
	e.Salary, err = decimal.NewFromString(salary)
	if err != nil {
		e.Salary = decimal.Zero
	}
	e.Status = hr.EmployeeStatus(status)
	return e, nil
}

// UpdateEmployee rewrites an employee record.
func (s *Store) UpdateEmployee(ctx context.Context, e hr.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.FullName == "" {
		e.FullName = e.FirstName + " " + e.LastName
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE employees SET
			employee_number = ?, first_name = ?, last_name = ?, full_name = ?,
			email = ?, phone_number = ?, date_of_birth = ?, hiring_date = ?,
			retirement_date = ?, workplace_id = ?, job_title_id = ?,
			qualification_id = ?, current_grade = ?, last_promotion_date = ?,
			last_allowance_date = ?, salary = ?, status = ?
		WHERE id = ?`,
		e.Number, e.FirstName, e.LastName, e.FullName,
		nullString(e.Email), nullString(e.Phone),
		e.DateOfBirth, e.HiringDate, e.RetirementDate,
		e.WorkplaceID, e.JobTitleID, e.QualificationID,
		e.CurrentGrade, e.LastPromotion, e.LastAllowance,
		e.Salary.String(), string(e.Status),
		e.ID,
	)
	if err != nil && isUniqueConstraintError(err) {
		return hr.ErrDuplicateEmployeeNumber
	}
	return err
}

// DeleteEmployee removes an employee and, via cascade, its orders and
// benefits.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	return err
}

// =============================================================================
// ORDERS
// =============================================================================

// CreateOrder inserts an order and fills in its assigned id.
func (s *Store) CreateOrder(ctx context.Context, o *hr.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (employee_id, kind, description, order_date, issued_by, additional_service_months)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.EmployeeID, string(o.Kind), o.Description, o.Date, o.IssuedBy, o.AddedServiceMonth,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	o.ID, _ = res.LastInsertId()
	return nil
}

// GetOrder retrieves an order by id. Returns nil when not found.
func (s *Store) GetOrder(ctx context.Context, id int64) (*hr.Order, error) {
	orders, err := s.queryOrders(ctx,
		`SELECT id, employee_id, kind, description, order_date, issued_by, additional_service_months
		 FROM orders WHERE id = ?`, id)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

// ListOrders returns all orders.
func (s *Store) ListOrders(ctx context.Context) ([]hr.Order, error) {
	return s.queryOrders(ctx,
		`SELECT id, employee_id, kind, description, order_date, issued_by, additional_service_months
		 FROM orders ORDER BY order_date DESC, id DESC`)
}

// ListOrdersByEmployee returns one employee's orders.
func (s *Store) ListOrdersByEmployee(ctx context.Context, employeeID int64) ([]hr.Order, error) {
	return s.queryOrders(ctx,
		`SELECT id, employee_id, kind, description, order_date, issued_by, additional_service_months
		 FROM orders WHERE employee_id = ? ORDER BY order_date DESC, id DESC`, employeeID)
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]hr.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []hr.Order
	for rows.Next() {
		var (
			o    hr.Order
			kind string
		)
		if err := rows.Scan(&o.ID, &o.EmployeeID, &kind, &o.Description, &o.Date, &o.IssuedBy, &o.AddedServiceMonth); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Kind = hr.OrderKind(kind)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrder rewrites an order record.
func (s *Store) UpdateOrder(ctx context.Context, o hr.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET employee_id = ?, kind = ?, description = ?, order_date = ?,
			issued_by = ?, additional_service_months = ?
		WHERE id = ?`,
		o.EmployeeID, string(o.Kind), o.Description, o.Date, o.IssuedBy, o.AddedServiceMonth, o.ID)
	return err
}

// DeleteOrder removes an order.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return err
}

// =============================================================================
// BENEFITS
// =============================================================================

const benefitColumns = `id, employee_id, kind, due_date, status, notes, processed_at, processed_by`

// CreateBenefit inserts a benefit and fills in its assigned id.
func (s *Store) CreateBenefit(ctx context.Context, b *hr.Benefit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Status == "" {
		b.Status = hr.BenefitPending
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO benefits (employee_id, kind, due_date, status, notes)
		VALUES (?, ?, ?, ?, ?)`,
		b.EmployeeID, b.Kind, b.DueDate, string(b.Status), nullString(b.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to create benefit: %w", err)
	}
	b.ID, _ = res.LastInsertId()
	return nil
}

// GetBenefit retrieves a benefit by id. Returns nil when not found.
func (s *Store) GetBenefit(ctx context.Context, id int64) (*hr.Benefit, error) {
	benefits, err := s.queryBenefits(ctx,
		`SELECT `+benefitColumns+` FROM benefits WHERE id = ?`, id)
	if err != nil || len(benefits) == 0 {
		return nil, err
	}
	return &benefits[0], nil
}

// ListBenefits returns all benefits.
func (s *Store) ListBenefits(ctx context.Context) ([]hr.Benefit, error) {
	return s.queryBenefits(ctx,
		`SELECT `+benefitColumns+` FROM benefits ORDER BY due_date, id`)
}

// ListPendingBenefits returns benefits still awaiting processing.
func (s *Store) ListPendingBenefits(ctx context.Context) ([]hr.Benefit, error) {
	return s.queryBenefits(ctx,
		`SELECT `+benefitColumns+` FROM benefits WHERE status = 'pending' ORDER BY due_date, id`)
}

// ListBenefitsByEmployee returns one employee's benefits.
func (s *Store) ListBenefitsByEmployee(ctx context.Context, employeeID int64) ([]hr.Benefit, error) {
	return s.queryBenefits(ctx,
		`SELECT `+benefitColumns+` FROM benefits WHERE employee_id = ? ORDER BY due_date, id`, employeeID)
}

func (s *Store) queryBenefits(ctx context.Context, query string, args ...any) ([]hr.Benefit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query benefits: %w", err)
	}
	defer rows.Close()

	var benefits []hr.Benefit
	for rows.Next() {
		var (
			b           hr.Benefit
			status      string
			notes       sql.NullString
			processedAt sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.Kind, &b.DueDate, &status, &notes, &processedAt, &b.ProcessedBy); err != nil {
			return nil, fmt.Errorf("failed to scan benefit: %w", err)
		}
		b.Status = hr.BenefitStatus(status)
		b.Notes = notes.String
		if processedAt.Valid {
			if t, err := time.Parse(time.RFC3339, processedAt.String); err == nil {
				b.ProcessedAt = &t
			}
		}
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}

// UpdateBenefit rewrites the mutable fields of a benefit.
func (s *Store) UpdateBenefit(ctx context.Context, b hr.Benefit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE benefits SET employee_id = ?, kind = ?, due_date = ?, status = ?, notes = ?
		WHERE id = ?`,
		b.EmployeeID, b.Kind, b.DueDate, string(b.Status), nullString(b.Notes), b.ID)
	return err
}

// ProcessBenefit records an administrator's decision on a pending benefit.
func (s *Store) ProcessBenefit(ctx context.Context, id int64, status hr.BenefitStatus, processedBy int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE benefits SET status = ?, processed_at = ?, processed_by = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), processedBy, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hr.ErrNotFound
	}
	return nil
}

// DeleteBenefit removes a benefit.
func (s *Store) DeleteBenefit(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM benefits WHERE id = ?`, id)
	return err
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

const notificationColumns = `id, user_id, title, message, type, is_read, created_at, related_id, related_type, due_date`

// CreateNotification inserts a notification and fills in its assigned id
// and creation time. Returns hr.ErrDuplicateNotification when the
// entitlement uniqueness constraint rejects it.
func (s *Store) CreateNotification(ctx context.Context, n *hr.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, is_read, created_at, related_id, related_type, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, n.Type, boolToInt(n.IsRead),
		n.CreatedAt.Format(time.RFC3339),
		n.RelatedID, nullString(n.RelatedType), n.DueDate,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return hr.ErrDuplicateNotification
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID, _ = res.LastInsertId()
	return nil
}

// FindEntitlementNotifications returns notifications already created for
// this (related entity, type, due date) triple, regardless of recipient.
// This is the sweeper's dedup read.
func (s *Store) FindEntitlementNotifications(ctx context.Context, relatedID int64, typ string, due hr.Date) ([]hr.Notification, error) {
	return s.queryNotifications(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE related_id = ? AND type = ? AND related_type = ? AND due_date = ?`,
		relatedID, typ, hr.RelatedTypeEmployee, due)
}

// ListNotificationsForUser returns a user's inbox, newest first. Broadcast
// notifications (NULL user_id) are included.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID int64) ([]hr.Notification, error) {
	return s.queryNotifications(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = ? OR user_id IS NULL
		 ORDER BY created_at DESC, id DESC`, userID)
}

// CountUnreadNotifications returns the number of unread inbox entries for a
// user.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE (user_id = ? OR user_id IS NULL) AND is_read = 0`,
		userID,
	).Scan(&count)
	return count, err
}

// MarkNotificationRead flips a single notification to read.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hr.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips all of one user's notifications to read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? OR user_id IS NULL`, userID)
	return err
}

// DeleteNotification removes a notification.
func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return err
}

func (s *Store) queryNotifications(ctx context.Context, query string, args ...any) ([]hr.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []hr.Notification
	for rows.Next() {
		var (
			n           hr.Notification
			isRead      int
			createdAt   string
			relatedType sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&isRead, &createdAt, &n.RelatedID, &relatedType, &n.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.IsRead = isRead != 0
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		n.RelatedType = relatedType.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// =============================================================================
// SWEEP RUNS (scheduler pass audit)
// =============================================================================

// SweepRun is one recorded scheduler pass.
type SweepRun struct {
	ID            string     `json:"id"`
	TriggerSource string     `json:"trigger_source"` // "schedule" or "manual"
	Status        string     `json:"status"`         // "running", "completed", "failed"
	Employees     int        `json:"employees"`
	Created       int        `json:"created"`
	Deduplicated  int        `json:"deduplicated"`
	Failures      int        `json:"failures"`
	Error         string     `json:"error,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SaveSweepRun inserts or updates a sweep run record.
func (s *Store) SaveSweepRun(ctx context.Context, r SweepRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs
		(id, trigger_source, status, employees, created, deduplicated, failures, error, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			employees = excluded.employees,
			created = excluded.created,
			deduplicated = excluded.deduplicated,
			failures = excluded.failures,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at`,
		r.ID, r.TriggerSource, r.Status,
		r.Employees, r.Created, r.Deduplicated, r.Failures,
		nullString(r.Error),
		nullTime(r.StartedAt), nullTime(r.CompletedAt),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListSweepRuns returns the most recent sweep runs, newest first.
func (s *Store) ListSweepRuns(ctx context.Context, limit int) ([]SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_source, status, employees, created, deduplicated, failures, error, started_at, completed_at, created_at
		FROM sweep_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []SweepRun
	for rows.Next() {
		var (
			r                               SweepRun
			errMsg                          sql.NullString
			startedAt, completedAt, created sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.TriggerSource, &r.Status,
			&r.Employees, &r.Created, &r.Deduplicated, &r.Failures,
			&errMsg, &startedAt, &completedAt, &created); err != nil {
			return nil, fmt.Errorf("failed to scan sweep run: %w", err)
		}
		r.Error = errMsg.String
		r.StartedAt = parseNullTime(startedAt)
		r.CompletedAt = parseNullTime(completedAt)
		if created.Valid {
			r.CreatedAt, _ = time.Parse(time.RFC3339, created.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
