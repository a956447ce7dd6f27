// Package listing implements the client-side filtering and pagination
// applied to in-memory collections fetched from the backend. Everything in
// here is a pure function of its inputs: the same filter state over the
// same source slice always yields the same rows, in source order.
package listing

import (
	"strings"

	"recibos/internal/core"
)

// All is the sentinel value that disables an enumerated filter.
const All = "all"

// ReceiptFilter is the transient filter state of a receipt listing.
type ReceiptFilter struct {
	Company     string // exact company name, or All
	BenefitType string // exact benefit type name, or All
	Reference   string // substring on the MM/YYYY reference
	Search      string // free text, case-insensitive
	ShowUnified bool   // admin-only toggle
}

// EmployeeFilter is the transient filter state of an employee listing.
type EmployeeFilter struct {
	Company string // exact company name, or All
	Search  string // free text over name/email/role/department
}

// FilterReceipts applies role visibility first and unconditionally, then
// each active filter as a conjunctive predicate.
func FilterReceipts(src []core.Receipt, viewer core.Viewer, f ReceiptFilter) []core.Receipt {
	out := make([]core.Receipt, 0, len(src))
	for _, r := range src {
		if !visibleTo(r, viewer, f.ShowUnified) {
			continue
		}
		if !matchesCompany(r.CompanyName, f.Company) {
			continue
		}
		if !matchesType(r, f.BenefitType) {
			continue
		}
		if f.Reference != "" && !containsFold(r.Reference, f.Reference) {
			continue
		}
		if !matchesReceiptSearch(r, f.Search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterEmployees applies the company selection and the free-text search.
// An employee matches the search when any of name, email, role title or
// department contains the query.
func FilterEmployees(src []core.Employee, f EmployeeFilter) []core.Employee {
	out := make([]core.Employee, 0, len(src))
	for _, e := range src {
		if !matchesCompany(e.CompanyName, f.Company) {
			continue
		}
		if f.Search != "" &&
			!containsFold(e.Name, f.Search) &&
			!containsFold(e.Email, f.Search) &&
			!containsFold(e.RoleTitle, f.Search) &&
			!containsFold(e.Department, f.Search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func visibleTo(r core.Receipt, viewer core.Viewer, showUnified bool) bool {
	if subject := viewer.ReceiptSubject(); subject != "" {
		// Non-admin viewers only ever see their own, never unified.
		return !r.Unified && r.EmployeeName == subject
	}
	if r.Unified && (!viewer.CanSeeUnified() || !showUnified) {
		return false
	}
	return true
}

func matchesCompany(name, selected string) bool {
	return selected == "" || selected == All || name == selected
}

// matchesType is exact for plain receipts. Unified receipts carry a
// composite label that embeds the underlying type name, so the selected
// type matches when the label contains it.
func matchesType(r core.Receipt, selected string) bool {
	if selected == "" || selected == All {
		return true
	}
	if r.Unified {
		return strings.Contains(r.BenefitType, selected)
	}
	return r.BenefitType == selected
}

// matchesReceiptSearch checks the fixed searchable fields: company plus the
// employee name, except on unified rows where the subject is the synthetic
// marker and the composite type label is searched instead.
func matchesReceiptSearch(r core.Receipt, query string) bool {
	if query == "" {
		return true
	}
	if r.Unified {
		return containsFold(r.BenefitType, query) || containsFold(r.CompanyName, query)
	}
	return containsFold(r.EmployeeName, query) || containsFold(r.CompanyName, query)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
