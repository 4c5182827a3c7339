package api

import (
	"net/http"

	"github.com/warp/personnel-engine/excel"
)

// ExportEmployeesExcel streams the roster as an .xlsx workbook.
func (s *Server) ExportEmployeesExcel(w http.ResponseWriter, r *http.Request) {
	f, err := excel.Export(r.Context(), s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export employees", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="employees.xlsx"`)
	// Headers are already sent; a write error here just drops the download.
	f.Write(w)
}

// ExportEmployeesCSV streams the roster as CSV.
func (s *Server) ExportEmployeesCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="employees.csv"`)
	excel.ExportCSV(r.Context(), s.store, w)
}

// EmployeeTemplateExcel serves the import template workbook.
func (s *Server) EmployeeTemplateExcel(w http.ResponseWriter, r *http.Request) {
	f := excel.Template()
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="employee-template.xlsx"`)
	f.Write(w)
}

// ImportEmployeesExcel bulk-creates employees from an uploaded workbook.
// The upload is multipart form data under the "file" field.
func (s *Server) ImportEmployeesExcel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	result, err := excel.Import(r.Context(), s.store, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to import workbook", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
