package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"recibos/internal/core"
	"recibos/internal/listing"
)

type employeesData struct {
	Viewer    core.Viewer
	Companies []core.Company
	Page      listing.Page[core.Employee]
	Filter    listing.EmployeeFilter
	State     string
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request, sess core.Session) {
	data, err := s.employeeListData(r, sess)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.render(w, r, "employees.html", data)
}

// handleEmployeeListPartial re-renders only the table for HTMX filter and
// pagination requests.
func (s *Server) handleEmployeeListPartial(w http.ResponseWriter, r *http.Request, sess core.Session) {
	data, err := s.employeeListData(r, sess)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.render(w, r, "employee_list.html", data)
}

func (s *Server) employeeListData(r *http.Request, sess core.Session) (employeesData, error) {
	filter := listing.EmployeeFilter{
		Company: queryFilter(r, "empresa"),
		Search:  sanitizeInput(r.URL.Query().Get("busca")),
	}

	slot := s.employeeSlots.For(sess.Token)
	seq := slot.Begin()
	employees, err := s.listEmployees(r.Context(), sess.Token)
	if err != nil {
		return employeesData{}, err
	}
	if !slot.Complete(seq, employees) {
		// A newer refresh already landed; render that one instead.
		if latest, ok := slot.Load(); ok {
			employees = latest
		}
	}

	companies, err := s.listCompanies(r.Context(), sess.Token)
	if err != nil {
		return employeesData{}, err
	}

	// Same contract as the receipt list: a filter change lands on page 1.
	state := strings.Join([]string{filter.Company, filter.Search}, "|")
	pageNum := parsePage(r)
	if r.URL.Query().Get("estado") != state {
		pageNum = 1
	}

	filtered := listing.FilterEmployees(employees, filter)
	page := listing.Paginate(filtered, pageNum, employeesPerPage)

	return employeesData{
		Viewer:    core.NewViewer(sess.Identity),
		Companies: companies,
		Page:      page,
		Filter:    filter,
		State:     state,
	}, nil
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	companyID, err := parseID(r.Form.Get("empresaId"))
	if err != nil || companyID <= 0 {
		UnprocessableEntityError("Selecione uma empresa").Write(w)
		return
	}

	employee := core.Employee{
		Name:       sanitizeInput(r.Form.Get("nome")),
		Email:      sanitizeInput(r.Form.Get("email")),
		RoleTitle:  sanitizeInput(r.Form.Get("cargo")),
		Department: sanitizeInput(r.Form.Get("departamento")),
		CompanyID:  companyID,
	}
	if err := employee.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	created, err := s.apiClient.Employees.Create(r.Context(), sess.Token, employee)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Employee created",
		"employee_id", created.ID, "employee", created.Name, "company_id", companyID)

	NewHTMXResponse().
		TriggerListRefresh("funcionarios").
		TriggerFormReset().
		TriggerSuccessNotification("Funcionário cadastrado: " + created.Name).
		BodyHTML(`<div class="success">Funcionário cadastrado: ` + template.HTMLEscapeString(created.Name) + `</div>`).
		Write(w)
}

// handleEditEmployeeForm renders the inline edit form for one employee.
func (s *Server) handleEditEmployeeForm(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}

	employee, err := s.apiClient.Employees.Get(r.Context(), sess.Token, id)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	companies, err := s.listCompanies(r.Context(), sess.Token)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	s.render(w, r, "employee_edit.html", struct {
		Employee  core.Employee
		Companies []core.Company
	}{Employee: employee, Companies: companies})
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	companyID, err := parseID(r.Form.Get("empresaId"))
	if err != nil || companyID <= 0 {
		UnprocessableEntityError("Selecione uma empresa").Write(w)
		return
	}

	employee := core.Employee{
		ID:         id,
		Name:       sanitizeInput(r.Form.Get("nome")),
		Email:      sanitizeInput(r.Form.Get("email")),
		RoleTitle:  sanitizeInput(r.Form.Get("cargo")),
		Department: sanitizeInput(r.Form.Get("departamento")),
		CompanyID:  companyID,
	}
	if err := employee.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	updated, err := s.apiClient.Employees.Update(r.Context(), sess.Token, id, employee)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Employee updated",
		"employee_id", id, "employee", updated.Name)

	NewHTMXResponse().
		TriggerListRefresh("funcionarios").
		TriggerSuccessNotification("Funcionário atualizado: " + updated.Name).
		BodyHTML(`<div class="success">Funcionário atualizado: ` + template.HTMLEscapeString(updated.Name) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}

	if err := s.apiClient.Employees.Delete(r.Context(), sess.Token, id); err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Employee deleted", "employee_id", id)

	NewHTMXResponse().
		TriggerListRefresh("funcionarios").
		TriggerSuccessNotification("Funcionário removido").
		Write(w)
}

// handleEmployeeOptions renders the employee select options for a company,
// used by the issuing form when the company changes.
func (s *Server) handleEmployeeOptions(w http.ResponseWriter, r *http.Request, sess core.Session) {
	companyID, err := parseID(r.URL.Query().Get("empresaId"))
	if err != nil || companyID <= 0 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<option value="">Selecione uma empresa primeiro</option>`))
		return
	}

	employees, err := s.apiClient.Employees.List(r.Context(), sess.Token, companyID)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	s.render(w, r, "employee_options.html", struct {
		Employees []core.Employee
	}{Employees: employees})
}
