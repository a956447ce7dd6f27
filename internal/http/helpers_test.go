package http

import (
	"net/http/httptest"
	"testing"
)

func TestSanitizeRedirect(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"/funcionarios", "/funcionarios"},
		{"/recibos?pagina=2", "/recibos?pagina=2"},
		{"", ""},
		{"https://evil.example", ""},
		{"//evil.example", ""},
		{"relative/path", ""},
	}
	for _, tc := range cases {
		if got := sanitizeRedirect(tc.in); got != tc.out {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"pagina=3", 3},
		{"pagina=0", 1},
		{"pagina=-2", 1},
		{"pagina=abc", 1},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/recibos?"+tc.query, nil)
		if got := parsePage(r); got != tc.want {
			t.Fatalf("%q: expected %d, got %d", tc.query, tc.want, got)
		}
	}
}

func TestQueryFilterAllSentinel(t *testing.T) {
	r := httptest.NewRequest("GET", "/recibos?empresa=TechCorp&tipo=", nil)
	if got := queryFilter(r, "empresa"); got != "TechCorp" {
		t.Fatalf("expected TechCorp, got %q", got)
	}
	if got := queryFilter(r, "tipo"); got != "all" {
		t.Fatalf("empty param should map to all, got %q", got)
	}
	if got := queryFilter(r, "ausente"); got != "all" {
		t.Fatalf("absent param should map to all, got %q", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  João\x00 Silva \x07 "); got != "João Silva " {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := clientIP(r); got != "10.0.0.1:1234" {
		t.Fatalf("expected remote addr, got %q", got)
	}

	r.Header.Set("X-Real-IP", "203.0.113.9")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
	if got := clientIP(r); got != "198.51.100.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
