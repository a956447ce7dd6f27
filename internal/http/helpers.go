package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recibos/internal/core"
)

// isHTMX reports whether the request came from an HTMX XHR.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// clientIP resolves the caller address, honoring common proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i > 0 {
			return strings.TrimSpace(ip[:i])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parsePage reads the page query parameter, defaulting to 1.
func parsePage(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("pagina"))
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// queryFilter reads a filter parameter, mapping absence to the "all"
// sentinel so filters compose uniformly.
func queryFilter(r *http.Request, name string) string {
	v := sanitizeInput(r.URL.Query().Get(name))
	if v == "" {
		return "all"
	}
	return v
}

func parseID(v string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// templateFuncs exposes formatting helpers to the templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"brl": func(m core.Money) string {
			return m.FormatBRL()
		},
		"brlCents": func(cents int64) string {
			return core.Money{Cents: cents}.FormatBRL()
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"pages": func(total int) []int {
			out := make([]int, total)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
	}
}
