/*
Package excel handles spreadsheet exchange of the employee roster.

PURPOSE:
  Administrators export the roster as an .xlsx workbook or CSV, and bulk
  import employees from a workbook matching the downloadable template.

DESIGN:
  Import resolves workplace, job title and qualification by name, skips
  invalid rows and reports each skipped row with its reason rather than
  aborting the whole upload. A duplicate employee number is a row error,
  not a fatal one.
*/
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/personnel-engine/hr"
)

const sheetName = "Employees"

var headers = []string{
	"Employee Number", "First Name", "Last Name", "Email", "Phone",
	"Date of Birth", "Hiring Date", "Workplace", "Job Title",
	"Qualification", "Grade", "Salary", "Status",
}

// Directory provides the read side of the roster.
type Directory interface {
	ListEmployees(ctx context.Context) ([]hr.Employee, error)
	ListWorkplaces(ctx context.Context) ([]hr.Workplace, error)
	ListJobTitles(ctx context.Context) ([]hr.JobTitle, error)
	ListQualifications(ctx context.Context) ([]hr.Qualification, error)
}

// Importer adds the write side needed by Import.
type Importer interface {
	Directory
	CreateEmployee(ctx context.Context, e *hr.Employee) error
}

// RowError describes one rejected import row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// lookups maps entity names to ids for import-by-name resolution.
type lookups struct {
	workplaceByID     map[int64]string
	jobTitleByID      map[int64]string
	qualificationByID map[int64]string
	workplaceByName   map[string]int64
	jobTitleByName    map[string]int64
	qualByName        map[string]int64
}

func loadLookups(ctx context.Context, dir Directory) (*lookups, error) {
	l := &lookups{
		workplaceByID:     map[int64]string{},
		jobTitleByID:      map[int64]string{},
		qualificationByID: map[int64]string{},
		workplaceByName:   map[string]int64{},
		jobTitleByName:    map[string]int64{},
		qualByName:        map[string]int64{},
	}
	workplaces, err := dir.ListWorkplaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workplaces {
		l.workplaceByID[w.ID] = w.Name
		l.workplaceByName[strings.ToLower(w.Name)] = w.ID
	}
	titles, err := dir.ListJobTitles(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range titles {
		l.jobTitleByID[t.ID] = t.Title
		l.jobTitleByName[strings.ToLower(t.Title)] = t.ID
	}
	quals, err := dir.ListQualifications(ctx)
	if err != nil {
		return nil, err
	}
	for _, q := range quals {
		l.qualificationByID[q.ID] = q.Name
		l.qualByName[strings.ToLower(q.Name)] = q.ID
	}
	return l, nil
}

func (l *lookups) name(m map[int64]string, id *int64) string {
	if id == nil {
		return ""
	}
	return m[*id]
}

func employeeRow(e hr.Employee, l *lookups) []any {
	return []any{
		e.Number, e.FirstName, e.LastName, e.Email, e.Phone,
		e.DateOfBirth.String(), e.HiringDate.String(),
		l.name(l.workplaceByID, e.WorkplaceID),
		l.name(l.jobTitleByID, e.JobTitleID),
		l.name(l.qualificationByID, e.QualificationID),
		e.CurrentGrade, e.Salary.String(), string(e.Status),
	}
}

// Export builds a workbook with the full roster, lookup ids resolved to
// names.
func Export(ctx context.Context, dir Directory) (*excelize.File, error) {
	l, err := loadLookups(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookups: %w", err)
	}
	employees, err := dir.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	f := newWorkbook()
	for i, e := range employees {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := employeeRow(e, l)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Template builds an empty workbook with the header row and one example
// row, ready to fill in and upload.
func Template() *excelize.File {
	f := newWorkbook()
	example := []any{
		"EMP-0001", "Jane", "Doe", "jane.doe@example.org", "+1 555 0100",
		"1985-04-12", "2020-03-10", "Head Office", "Analyst", "Bachelor",
		3, "52000", "active",
	}
	cell, _ := excelize.CoordinatesToCellName(1, 2)
	f.SetSheetRow(sheetName, cell, &example)
	return f
}

func newWorkbook() *excelize.File {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	f.SetSheetRow(sheetName, "A1", &header)
	return f
}

// Import reads a workbook from r and creates an employee per valid row.
func Import(ctx context.Context, imp Importer, r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := sheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read rows: %w", err)
	}

	l, err := loadLookups(ctx, imp)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to load lookups: %w", err)
	}

	var result ImportResult
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rowNum := i + 1
		emp, reason := parseRow(row, l)
		if reason != "" {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Reason: reason})
			continue
		}
		if err := imp.CreateEmployee(ctx, &emp); err != nil {
			result.Skipped++
			reason := err.Error()
			if err == hr.ErrDuplicateEmployeeNumber {
				reason = "employee number already exists"
			}
			result.Errors = append(result.Errors, RowError{Row: rowNum, Reason: reason})
			continue
		}
		result.Imported++
	}
	return result, nil
}

func parseRow(row []string, l *lookups) (hr.Employee, string) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var emp hr.Employee
	emp.Number = cell(0)
	emp.FirstName = cell(1)
	emp.LastName = cell(2)
	if emp.Number == "" || emp.FirstName == "" || emp.LastName == "" {
		return emp, "employee number, first name and last name are required"
	}
	emp.FullName = emp.FirstName + " " + emp.LastName
	emp.Email = cell(3)
	emp.Phone = cell(4)

	if dob := cell(5); dob != "" {
		d, err := hr.ParseDate(dob)
		if err != nil {
			return emp, "invalid date of birth (use YYYY-MM-DD)"
		}
		emp.DateOfBirth = d
	}
	hire, err := hr.ParseDate(cell(6))
	if err != nil || hire.IsZero() {
		return emp, "invalid hiring date (use YYYY-MM-DD)"
	}
	emp.HiringDate = hire

	if name := cell(7); name != "" {
		id, ok := l.workplaceByName[strings.ToLower(name)]
		if !ok {
			return emp, fmt.Sprintf("unknown workplace %q", name)
		}
		emp.WorkplaceID = &id
	}
	if name := cell(8); name != "" {
		id, ok := l.jobTitleByName[strings.ToLower(name)]
		if !ok {
			return emp, fmt.Sprintf("unknown job title %q", name)
		}
		emp.JobTitleID = &id
	}
	if name := cell(9); name != "" {
		id, ok := l.qualByName[strings.ToLower(name)]
		if !ok {
			return emp, fmt.Sprintf("unknown qualification %q", name)
		}
		emp.QualificationID = &id
	}

	if g := cell(10); g != "" {
		grade, err := strconv.Atoi(g)
		if err != nil {
			return emp, "invalid grade"
		}
		emp.CurrentGrade = grade
	}
	if sal := cell(11); sal != "" {
		salary, err := decimal.NewFromString(sal)
		if err != nil {
			return emp, "invalid salary"
		}
		emp.Salary = salary
	}

	emp.Status = hr.StatusActive
	if st := cell(12); st != "" {
		switch hr.EmployeeStatus(st) {
		case hr.StatusActive, hr.StatusRetired, hr.StatusSuspended:
			emp.Status = hr.EmployeeStatus(st)
		default:
			return emp, fmt.Sprintf("unknown status %q", st)
		}
	}
	return emp, ""
}

// ExportCSV streams the roster as CSV to w.
func ExportCSV(ctx context.Context, dir Directory, w io.Writer) error {
	l, err := loadLookups(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to load lookups: %w", err)
	}
	employees, err := dir.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, e := range employees {
		row := employeeRow(e, l)
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
