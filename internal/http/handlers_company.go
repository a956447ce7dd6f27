package http

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"recibos/internal/core"
)

type companiesData struct {
	Viewer    core.Viewer
	Companies []core.Company
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request, sess core.Session) {
	companies, err := s.listCompanies(r.Context(), sess.Token)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.render(w, r, "companies.html", companiesData{
		Viewer:    core.NewViewer(sess.Identity),
		Companies: companies,
	})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	company := core.Company{
		Name:    sanitizeInput(r.Form.Get("nome")),
		TaxID:   sanitizeInput(r.Form.Get("cnpj")),
		Address: sanitizeInput(r.Form.Get("endereco")),
		Contact: sanitizeInput(r.Form.Get("contato")),
	}
	if err := company.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	created, err := s.apiClient.Companies.Create(r.Context(), sess.Token, company)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Company created",
		"company_id", created.ID, "company", created.Name)

	NewHTMXResponse().
		TriggerListRefresh("empresas").
		TriggerFormReset().
		TriggerSuccessNotification("Empresa cadastrada: " + created.Name).
		BodyHTML(`<div class="success">Empresa cadastrada: ` + template.HTMLEscapeString(created.Name) + `</div>`).
		Write(w)
}

// handleEditCompanyForm renders the inline edit form for one company.
func (s *Server) handleEditCompanyForm(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}

	company, err := s.apiClient.Companies.Get(r.Context(), sess.Token, id)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	s.render(w, r, "company_edit.html", struct {
		Company core.Company
	}{Company: company})
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	company := core.Company{
		ID:      id,
		Name:    sanitizeInput(r.Form.Get("nome")),
		TaxID:   sanitizeInput(r.Form.Get("cnpj")),
		Address: sanitizeInput(r.Form.Get("endereco")),
		Contact: sanitizeInput(r.Form.Get("contato")),
	}
	if err := company.Validate(); err != nil {
		UnprocessableEntityError("Dados inválidos: " + err.Error()).Write(w)
		return
	}

	updated, err := s.apiClient.Companies.Update(r.Context(), sess.Token, id, company)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Company updated",
		"company_id", id, "company", updated.Name)

	NewHTMXResponse().
		TriggerListRefresh("empresas").
		TriggerSuccessNotification("Empresa atualizada: " + updated.Name).
		BodyHTML(`<div class="success">Empresa atualizada: ` + template.HTMLEscapeString(updated.Name) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}

	if err := s.apiClient.Companies.Delete(r.Context(), sess.Token, id); err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Company deleted", "company_id", id)

	NewHTMXResponse().
		TriggerListRefresh("empresas").
		TriggerSuccessNotification("Empresa removida").
		Write(w)
}
