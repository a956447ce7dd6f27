package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"recibos/internal/api"
	"recibos/internal/core"
	"recibos/internal/listing"
	applog "recibos/internal/log"
)

// benefitTypes is the fixed set offered by the issuing form. The history
// filter derives its options from the data instead.
var benefitTypes = []string{
	"Vale Transporte",
	"Vale Alimentação",
	"Vale Refeição",
	"Adiantamento",
}

type historyData struct {
	Viewer       core.Viewer
	Page         listing.Page[core.Receipt]
	Filter       listing.ReceiptFilter
	State        string
	Companies    []core.Company
	BenefitTypes []string
}

func (s *Server) handleReceiptHistory(w http.ResponseWriter, r *http.Request, sess core.Session) {
	data, err := s.receiptListData(r, sess)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.render(w, r, "receipts.html", data)
}

// handleReceiptListPartial re-renders only the table for HTMX filter and
// pagination requests. Any filter change resets to page 1 on the client.
func (s *Server) handleReceiptListPartial(w http.ResponseWriter, r *http.Request, sess core.Session) {
	data, err := s.receiptListData(r, sess)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.render(w, r, "receipt_list.html", data)
}

func (s *Server) receiptListData(r *http.Request, sess core.Session) (historyData, error) {
	viewer := core.NewViewer(sess.Identity)

	filter := listing.ReceiptFilter{
		Company:     queryFilter(r, "empresa"),
		BenefitType: queryFilter(r, "tipo"),
		Reference:   sanitizeInput(r.URL.Query().Get("referencia")),
		Search:      sanitizeInput(r.URL.Query().Get("busca")),
		ShowUnified: viewer.CanSeeUnified() && r.URL.Query().Get("unificados") == "1",
	}

	slot := s.receiptSlots.For(sess.Token)
	seq := slot.Begin()
	receipts, err := s.listReceipts(r.Context(), sess.Token)
	if err != nil {
		return historyData{}, err
	}
	if !slot.Complete(seq, receipts) {
		if latest, ok := slot.Load(); ok {
			receipts = latest
		}
	}

	var companies []core.Company
	if viewer.IsAdmin() {
		companies, err = s.listCompanies(r.Context(), sess.Token)
		if err != nil {
			return historyData{}, err
		}
	}

	// Page numbers only carry over between requests with the same filter
	// state; a filter change always lands on page 1.
	state := receiptFilterState(filter)
	pageNum := parsePage(r)
	if r.URL.Query().Get("estado") != state {
		pageNum = 1
	}

	filtered := listing.FilterReceipts(receipts, viewer, filter)
	page := listing.Paginate(filtered, pageNum, receiptsPerPage)

	return historyData{
		Viewer:       viewer,
		Page:         page,
		Filter:       filter,
		State:        state,
		Companies:    companies,
		BenefitTypes: benefitTypes,
	}, nil
}

// receiptFilterState fingerprints the filter so pagination links can prove
// they were rendered against the same filter.
func receiptFilterState(f listing.ReceiptFilter) string {
	unified := "0"
	if f.ShowUnified {
		unified = "1"
	}
	return strings.Join([]string{f.Company, f.BenefitType, f.Reference, f.Search, unified}, "|")
}

type generateData struct {
	Viewer       core.Viewer
	Companies    []core.Company
	BenefitTypes []string
	Reference    string
}

func (s *Server) handleGeneratePage(w http.ResponseWriter, r *http.Request, sess core.Session) {
	companies, err := s.listCompanies(r.Context(), sess.Token)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	now := time.Now()
	s.render(w, r, "receipt_generate.html", generateData{
		Viewer:       core.NewViewer(sess.Identity),
		Companies:    companies,
		BenefitTypes: benefitTypes,
		Reference:    fmt.Sprintf("%02d/%d", int(now.Month()), now.Year()),
	})
}

// parseReceiptForm reads the shared fields of the issuing forms.
func (s *Server) parseReceiptForm(r *http.Request) (core.Receipt, error) {
	companyID, err := parseID(r.Form.Get("empresaId"))
	if err != nil || companyID <= 0 {
		return core.Receipt{}, fmt.Errorf("selecione uma empresa")
	}
	cents, err := core.ParseBRLToCents(r.Form.Get("valor"))
	if err != nil {
		return core.Receipt{}, fmt.Errorf("valor inválido")
	}
	reference := sanitizeInput(r.Form.Get("referencia"))
	if !core.ValidReference(reference) {
		return core.Receipt{}, fmt.Errorf("referência deve ser MM/AAAA")
	}
	return core.Receipt{
		CompanyID:   companyID,
		CompanyName: sanitizeInput(r.Form.Get("empresaNome")),
		BenefitType: sanitizeInput(r.Form.Get("tipo")),
		Reference:   reference,
		IssueDate:   time.Now(),
		Amount:      core.Money{Cents: cents},
	}, nil
}

func (s *Server) handleIssueReceipt(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	draft, err := s.parseReceiptForm(r)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	draft.EmployeeName = sanitizeInput(r.Form.Get("funcionario"))

	created, err := s.issuer.Issue(r.Context(), sess, draft)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	fields := applog.NewFields().
		WithOperation("issue_receipt").
		WithUser(sess.Identity.Email, string(sess.Identity.Role)).
		WithReceipt(created.ID, created.BenefitType, created.Reference, created.Amount.Cents)
	slog.InfoContext(r.Context(), "Receipt issued", fields.ToSlice()...)

	NewHTMXResponse().
		TriggerReceiptIssued(created.ID).
		TriggerListRefresh("recibos").
		TriggerFormReset().
		TriggerSuccessNotification("Recibo emitido para " + created.EmployeeName).
		BodyHTML(`<div class="success">Recibo #` + strconv.FormatInt(created.ID, 10) + ` emitido</div>`).
		Write(w)
}

// handleIssueUnified issues one aggregate receipt covering every listed
// employee. The backend stores it with the composite type label and the
// synthetic subject marker.
func (s *Server) handleIssueUnified(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	draft, err := s.parseReceiptForm(r)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	draft.Unified = true
	draft.BenefitType = core.UnifiedTypePrefix + draft.BenefitType
	draft.EmployeeName = core.UnifiedEmployeeMarker

	created, err := s.issuer.Issue(r.Context(), sess, draft)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	fields := applog.NewFields().
		WithOperation("issue_unified_receipt").
		WithUser(sess.Identity.Email, string(sess.Identity.Role)).
		WithReceipt(created.ID, created.BenefitType, created.Reference, created.Amount.Cents)
	slog.InfoContext(r.Context(), "Unified receipt issued", fields.ToSlice()...)

	NewHTMXResponse().
		TriggerReceiptIssued(created.ID).
		TriggerListRefresh("recibos").
		TriggerFormReset().
		TriggerSuccessNotification("Recibo unificado emitido").
		BodyHTML(`<div class="success">Recibo unificado #` + strconv.FormatInt(created.ID, 10) + ` emitido</div>`).
		Write(w)
}

// handleUnifiedPDF proxies the combined document download. The backend
// renders the PDF; this side streams it back with a download disposition.
func (s *Server) handleUnifiedPDF(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	companyID, err := parseID(r.Form.Get("empresaId"))
	if err != nil || companyID <= 0 {
		UnprocessableEntityError("Selecione uma empresa").Write(w)
		return
	}
	reference := sanitizeInput(r.Form.Get("referencia"))
	if !core.ValidReference(reference) {
		UnprocessableEntityError("Referência deve ser MM/AAAA").Write(w)
		return
	}
	dailyCents, err := core.ParseBRLToCents(r.Form.Get("valorDia"))
	if err != nil {
		UnprocessableEntityError("Valor diário inválido").Write(w)
		return
	}

	var lines []api.UnifiedEmployeeLine
	for _, idStr := range r.Form["funcionarioId"] {
		id, err := parseID(idStr)
		if err != nil || id <= 0 {
			continue
		}
		days, _ := strconv.Atoi(r.Form.Get("dias_" + idStr))
		if days <= 0 {
			days = 22
		}
		lines = append(lines, api.UnifiedEmployeeLine{
			ID:    id,
			Days:  days,
			Cents: dailyCents * int64(days),
		})
	}
	if len(lines) == 0 {
		UnprocessableEntityError("Selecione ao menos um funcionário").Write(w)
		return
	}

	pdf, err := s.apiClient.Receipts.GenerateUnifiedPDF(r.Context(), sess.Token, api.UnifiedReceiptRequest{
		CompanyID:   companyID,
		Reference:   reference,
		PeriodStart: sanitizeInput(r.Form.Get("periodoInicio")),
		PeriodEnd:   sanitizeInput(r.Form.Get("periodoFim")),
		DailyCents:  dailyCents,
		Employees:   lines,
	})
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	slog.InfoContext(r.Context(), "Unified PDF generated",
		"company_id", companyID, "reference", reference, "employees", len(lines))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="recibo-unificado.pdf"`)
	_, _ = w.Write(pdf)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}

	if err := s.issuer.Delete(r.Context(), sess, id); err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}
	s.invalidateLists()

	slog.InfoContext(r.Context(), "Receipt deleted", "receipt_id", id)

	NewHTMXResponse().
		TriggerReceiptDeleted(id).
		TriggerListRefresh("recibos").
		TriggerSuccessNotification("Recibo removido").
		Write(w)
}

// handleReceiptPreview renders one receipt's detail partial. Employees can
// only open their own.
func (s *Server) handleReceiptPreview(w http.ResponseWriter, r *http.Request, sess core.Session) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		BadRequestError("Identificador inválido").Write(w)
		return
	}

	receipt, err := s.apiClient.Receipts.Get(r.Context(), sess.Token, id)
	if err != nil {
		if api.IsNotFound(err) {
			ErrorResponse(http.StatusNotFound, "Recibo não encontrado").Write(w)
			return
		}
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	viewer := core.NewViewer(sess.Identity)
	if subject := viewer.ReceiptSubject(); subject != "" {
		if receipt.Unified || receipt.EmployeeName != subject {
			ErrorResponse(http.StatusNotFound, "Recibo não encontrado").Write(w)
			return
		}
	}

	// Unified receipts get their own card: composite type, aggregate value,
	// and the path to the consolidated PDF.
	name := "receipt_preview.html"
	if receipt.Unified {
		name = "receipt_preview_unified.html"
	}
	s.render(w, r, name, struct {
		Viewer  core.Viewer
		Receipt core.Receipt
	}{Viewer: viewer, Receipt: receipt})
}

// handleDraftPreview renders the live preview of a single receipt as the
// admin fills the form, before anything is persisted.
func (s *Server) handleDraftPreview(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	draft, err := s.parseReceiptForm(r)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	draft.EmployeeName = sanitizeInput(r.Form.Get("funcionario"))

	s.render(w, r, "receipt_draft_preview.html", struct {
		Receipt core.Receipt
	}{Receipt: draft})
}

// handleUnifiedDraftPreview renders the aggregate preview: every selected
// employee with per-line values and the period total.
func (s *Server) handleUnifiedDraftPreview(w http.ResponseWriter, r *http.Request, sess core.Session) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	companyID, err := parseID(r.Form.Get("empresaId"))
	if err != nil || companyID <= 0 {
		UnprocessableEntityError("Selecione uma empresa").Write(w)
		return
	}
	dailyCents, err := core.ParseBRLToCents(r.Form.Get("valorDia"))
	if err != nil {
		UnprocessableEntityError("Valor diário inválido").Write(w)
		return
	}

	employees, err := s.apiClient.Employees.List(r.Context(), sess.Token, companyID)
	if err != nil {
		if s.handleAPIError(w, r, err) {
			return
		}
	}

	selected := make(map[int64]bool, len(r.Form["funcionarioId"]))
	for _, idStr := range r.Form["funcionarioId"] {
		if id, err := parseID(idStr); err == nil {
			selected[id] = true
		}
	}

	type line struct {
		Name   string
		Role   string
		Days   int
		Amount string
	}
	var (
		lines      []line
		totalCents int64
	)
	for _, e := range employees {
		if len(selected) > 0 && !selected[e.ID] {
			continue
		}
		days, _ := strconv.Atoi(r.Form.Get("dias_" + strconv.FormatInt(e.ID, 10)))
		if days <= 0 {
			days = 22
		}
		cents := dailyCents * int64(days)
		totalCents += cents
		lines = append(lines, line{
			Name:   e.Name,
			Role:   e.RoleTitle,
			Days:   days,
			Amount: core.Money{Cents: cents}.FormatBRL(),
		})
	}

	s.render(w, r, "receipt_unified_preview.html", struct {
		BenefitType string
		Reference   string
		Lines       []line
		Total       string
	}{
		BenefitType: sanitizeInput(r.Form.Get("tipo")),
		Reference:   sanitizeInput(r.Form.Get("referencia")),
		Lines:       lines,
		Total:       core.Money{Cents: totalCents}.FormatBRL(),
	})
}
