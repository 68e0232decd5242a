package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sqlpulse/sqlpulse/internal/logging"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/api/customers", 10, 0},
		{"page two", "/api/customers?page=2&per_page=25", 25, 25},
		{"per_page capped", "/api/customers?per_page=500", 10, 0},
		{"bad values ignored", "/api/customers?page=zero&per_page=-3", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			limit, offset := pagination(r)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("pagination() = (%d, %d), want (%d, %d)",
					limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusServiceUnavailable, "Database connection failed")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] != "Database connection failed" {
		t.Errorf("error field = %q", body["error"])
	}
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	h := withMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestMiddlewareCORSPreflight(t *testing.T) {
	h := withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), logging.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}
