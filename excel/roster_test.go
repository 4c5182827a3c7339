package excel

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/personnel-engine/hr"
	"github.com/warp/personnel-engine/store/sqlite"
)

func seededStore(t *testing.T) (*sqlite.Store, hr.Workplace, hr.JobTitle) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	wp := hr.Workplace{Name: "Head Office"}
	require.NoError(t, store.CreateWorkplace(context.Background(), &wp))
	jt := hr.JobTitle{Title: "Analyst", Grade: 3}
	require.NoError(t, store.CreateJobTitle(context.Background(), &jt))
	return store, wp, jt
}

func TestExportResolvesLookupNames(t *testing.T) {
	store, wp, jt := seededStore(t)
	e := hr.Employee{
		Number: "EMP-1", FirstName: "Jane", LastName: "Doe",
		HiringDate:  hr.NewDate(2020, 3, 10),
		WorkplaceID: &wp.ID, JobTitleID: &jt.ID,
	}
	require.NoError(t, store.CreateEmployee(context.Background(), &e))

	f, err := Export(context.Background(), store)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, headers[0], rows[0][0])
	assert.Equal(t, "EMP-1", rows[1][0])
	assert.Equal(t, "Head Office", rows[1][7])
	assert.Equal(t, "Analyst", rows[1][8])
	assert.Equal(t, "2020-03-10", rows[1][6])
}

func importWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := Template()
	defer f.Close()

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, f.SetSheetRow(sheetName, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportRoundTrip(t *testing.T) {
	store, _, _ := seededStore(t)

	buf := importWorkbook(t, [][]any{
		{"EMP-1", "Jane", "Doe", "jane@example.org", "", "1985-04-12", "2020-03-10", "Head Office", "Analyst", "", 3, "52000", "active"},
		{"EMP-2", "John", "Roe", "", "", "", "2018-09-01", "", "", "", 2, "", ""},
	})

	result, err := Import(context.Background(), store, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	got, err := store.GetEmployeeByNumber(context.Background(), "EMP-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.True(t, got.HiringDate.Equal(hr.NewDate(2020, 3, 10)))
	require.NotNil(t, got.WorkplaceID)
	assert.Equal(t, hr.StatusActive, got.Status)
}

func TestImportReportsRowErrors(t *testing.T) {
	store, _, _ := seededStore(t)

	existing := hr.Employee{Number: "EMP-1", FirstName: "A", LastName: "B", HiringDate: hr.NewDate(2020, 1, 1)}
	require.NoError(t, store.CreateEmployee(context.Background(), &existing))

	buf := importWorkbook(t, [][]any{
		{"EMP-1", "Dup", "Licate", "", "", "", "2020-01-01", "", "", "", "", "", ""},   // duplicate number
		{"", "No", "Number", "", "", "", "2020-01-01", "", "", "", "", "", ""},         // missing number
		{"EMP-3", "Bad", "Date", "", "", "", "01/02/2020", "", "", "", "", "", ""},     // bad hire date
		{"EMP-4", "Bad", "Workplace", "", "", "", "2020-01-01", "Moon Base", "", "", "", "", ""},
		{"EMP-5", "Fine", "Row", "", "", "", "2020-01-01", "", "", "", "", "", ""},
	})

	result, err := Import(context.Background(), store, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 4, result.Skipped)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Reason, "already exists")
	assert.Contains(t, result.Errors[3].Reason, "Moon Base")
}

func TestExportCSV(t *testing.T) {
	store, _, _ := seededStore(t)
	e := hr.Employee{Number: "EMP-1", FirstName: "Jane", LastName: "Doe", HiringDate: hr.NewDate(2020, 3, 10)}
	require.NoError(t, store.CreateEmployee(context.Background(), &e))

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(context.Background(), store, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Employee Number")
	assert.Contains(t, lines[1], "EMP-1")
	assert.Contains(t, lines[1], "2020-03-10")
}
