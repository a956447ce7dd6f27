package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// UnifiedTypePrefix is the composite label prefix carried by unified
// receipts, e.g. "Unificado - Vale Transporte".
const UnifiedTypePrefix = "Unificado - "

// UnifiedEmployeeMarker is the synthetic employee name on unified receipts.
const UnifiedEmployeeMarker = "Múltiplos"

type (
	Role string

	// Identity is the authenticated user as resolved from the backend.
	Identity struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  Role   `json:"role"`
	}

	// Session couples an identity with its bearer token. A session
	// without a token is never considered authenticated.
	Session struct {
		ID       string
		Identity Identity
		Token    string
	}

	Company struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		TaxID   string `json:"cnpj"`
		Address string `json:"address"`
		Contact string `json:"contact"`
	}

	Employee struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		RoleTitle   string `json:"role"`
		Department  string `json:"department"`
		CompanyID   int64  `json:"empresaId"`
		CompanyName string `json:"company"`
	}

	Receipt struct {
		ID           int64     `json:"id"`
		CompanyID    int64     `json:"empresaId"`
		CompanyName  string    `json:"company"`
		BenefitType  string    `json:"type"`
		Reference    string    `json:"reference"`
		IssueDate    time.Time `json:"date"`
		EmployeeName string    `json:"employee"`
		Amount       Money     `json:"valueCents"`
		Unified      bool      `json:"unified"`
	}
)

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidTaxID     = errors.New("invalid CNPJ")
	ErrNoCompany        = errors.New("missing company")
	ErrEmptyBenefitType = errors.New("empty benefit type")
	ErrInvalidReference = errors.New("invalid reference period")
	ErrInvalidAmount    = errors.New("invalid amount")
)

var referenceRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)

// ValidReference reports whether s is a MM/YYYY reference period.
func ValidReference(s string) bool {
	return referenceRe.MatchString(s)
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Authenticated reports whether the session holds both an identity and a
// token. Half-valid sessions never count as logged in.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Identity.ID != "" && s.Identity.Role.Valid()
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" || strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(i.Email, "@") {
		return ErrInvalidEmail
	}
	if !i.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 120 {
		return errors.New("name too long (max 120 characters)")
	}
	if strings.TrimSpace(c.TaxID) == "" {
		return ErrInvalidTaxID
	}
	return nil
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(e.Email, "@") {
		return ErrInvalidEmail
	}
	if e.CompanyID == 0 && strings.TrimSpace(e.CompanyName) == "" {
		return ErrNoCompany
	}
	return nil
}

func (r Receipt) Validate() error {
	if r.CompanyID == 0 && strings.TrimSpace(r.CompanyName) == "" {
		return ErrNoCompany
	}
	if strings.TrimSpace(r.BenefitType) == "" {
		return ErrEmptyBenefitType
	}
	if !ValidReference(r.Reference) {
		return ErrInvalidReference
	}
	if !r.Unified && strings.TrimSpace(r.EmployeeName) == "" {
		return ErrEmptyName
	}
	return r.Amount.Validate()
}

// UnderlyingType strips the unified prefix from a composite type label.
// For non-unified receipts the label is returned unchanged.
func (r Receipt) UnderlyingType() string {
	return strings.TrimPrefix(r.BenefitType, UnifiedTypePrefix)
}
