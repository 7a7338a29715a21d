package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecureHeadersForJSONAPI(t *testing.T) {
	handler := SecureHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payrolls", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}
	for key, value := range want {
		if got := rec.Header().Get(key); got != value {
			t.Fatalf("expected %s to be %q, got %q", key, value, got)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("expected no HSTS header outside production")
	}

	prodRec := httptest.NewRecorder()
	SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(prodRec, httptest.NewRequest(http.MethodGet, "/api/v1/payrolls", nil))
	if !strings.HasPrefix(prodRec.Header().Get("Strict-Transport-Security"), "max-age=") {
		t.Fatal("expected HSTS header in production")
	}
}

func TestBodyLimitCapsMutatingVerbs(t *testing.T) {
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil && !errors.Is(err, io.EOF) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	big := strings.NewReader(strings.Repeat("x", 32))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payrolls", big))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected oversized POST body to be rejected, got %d", rec.Code)
	}

	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/v1/payrolls", nil))
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected GET to bypass the body cap, got %d", getRec.Code)
	}
}
