package google

import (
	"context"
	"testing"
)

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Recibos", 2026, "2026 Recibos"},
		{"2026 Recibos", 2026, "2026 Recibos"},
		{"2025 Recibos", 2026, "2026 2025 Recibos"},
		{"  Recibos  ", 2026, "2026 Recibos"},
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, tc.year); got != tc.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tc.base, tc.year, got, tc.want)
		}
	}
}

func TestNewFromEnvRequiresSpreadsheet(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected error without GOOGLE_SPREADSHEET_ID")
	}
}
