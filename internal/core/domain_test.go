package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidReference(t *testing.T) {
	valid := []string{"01/2026", "12/1999", "06/2025"}
	for _, s := range valid {
		if !ValidReference(s) {
			t.Fatalf("%q should be a valid reference", s)
		}
	}
	invalid := []string{"", "13/2026", "00/2026", "1/2026", "01/26", "2026/01", "01-2026"}
	for _, s := range invalid {
		if ValidReference(s) {
			t.Fatalf("%q should be rejected", s)
		}
	}
}

func TestReceiptValidate(t *testing.T) {
	base := Receipt{
		CompanyID:    1,
		CompanyName:  "TechCorp",
		BenefitType:  "Vale Transporte",
		Reference:    "06/2026",
		IssueDate:    time.Now(),
		EmployeeName: "João Silva",
		Amount:       Money{Cents: 22000},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid receipt rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Receipt)
		want   error
	}{
		{"no company", func(r *Receipt) { r.CompanyID = 0; r.CompanyName = "" }, ErrNoCompany},
		{"no type", func(r *Receipt) { r.BenefitType = "" }, ErrEmptyBenefitType},
		{"bad reference", func(r *Receipt) { r.Reference = "13/2026" }, ErrInvalidReference},
		{"no employee", func(r *Receipt) { r.EmployeeName = "" }, ErrEmptyName},
		{"zero amount", func(r *Receipt) { r.Amount = Money{} }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		r := base
		tc.mutate(&r)
		if err := r.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestUnifiedReceiptValidate(t *testing.T) {
	r := Receipt{
		CompanyID:    2,
		CompanyName:  "TechCorp",
		BenefitType:  UnifiedTypePrefix + "Vale Transporte",
		Reference:    "06/2026",
		EmployeeName: UnifiedEmployeeMarker,
		Amount:       Money{Cents: 484000},
		Unified:      true,
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("unified receipt rejected: %v", err)
	}
	if got := r.UnderlyingType(); got != "Vale Transporte" {
		t.Fatalf("UnderlyingType: expected Vale Transporte, got %q", got)
	}

	// Unified rows use a synthetic subject, the empty-name rule is waived.
	r.EmployeeName = ""
	if err := r.Validate(); err != nil {
		t.Fatalf("unified receipt without subject rejected: %v", err)
	}
}

func TestIdentityValidate(t *testing.T) {
	id := Identity{ID: "u1", Name: "Maria", Email: "maria@corp.com", Role: RoleAdmin}
	if err := id.Validate(); err != nil {
		t.Fatalf("valid identity rejected: %v", err)
	}

	bad := id
	bad.Role = "superuser"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	bad = id
	bad.Email = "not-an-email"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestSessionAuthenticated(t *testing.T) {
	id := Identity{ID: "u1", Name: "Maria", Email: "maria@corp.com", Role: RoleEmployee}
	s := Session{ID: "sid", Identity: id, Token: "tok"}
	if !s.Authenticated() {
		t.Fatal("complete session should be authenticated")
	}
	if (Session{ID: "sid", Identity: id}).Authenticated() {
		t.Fatal("session without token should not be authenticated")
	}
	if (Session{ID: "sid", Token: "tok"}).Authenticated() {
		t.Fatal("session without identity should not be authenticated")
	}
}
