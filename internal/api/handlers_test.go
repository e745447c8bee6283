package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/nishad/ctrake/internal/database"
	"github.com/nishad/ctrake/internal/metrics"
	"github.com/nishad/ctrake/internal/service"
	tu "github.com/nishad/ctrake/internal/testutil"
)

// setupTestServer creates a server over the fixture studies.
func setupTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()

	db, index, cleanup := tu.TestDBWithFixtures(t)
	t.Cleanup(cleanup)

	m := metrics.New()
	s := NewServer(&Config{Host: "127.0.0.1", Port: 0, EnableCORS: true}, Deps{
		Search:   service.NewSearchService(db, index),
		Metadata: service.NewMetadataService(db),
		Logger:   zerolog.Nop(),
		Metrics:  m,
	})
	return s, m
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeSummaries(t *testing.T, w *httptest.ResponseRecorder) []database.StudySummary {
	t.Helper()
	var out []database.StudySummary
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestSearchEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantCount  int
	}{
		{"no criteria", "/api/v1/search", http.StatusOK, 0},
		{"text", "/api/v1/search?text=asthma", http.StatusOK, 2},
		{"text and sponsor", "/api/v1/search?text=asthma&sponsors=3", http.StatusOK, 1},
		{"conditions list", "/api/v1/search?conditions=2,3", http.StatusOK, 2},
		{"detailed description", "/api/v1/search?detailed_desc=metformin", http.StatusOK, 1},
		{"limit", "/api/v1/search?conditions=1,3&limit=1", http.StatusOK, 1},
		{"bad ids", "/api/v1/search?conditions=1,x", http.StatusBadRequest, -1},
		{"injection attempt", "/api/v1/search?sponsors=1)%20OR%201=1--", http.StatusBadRequest, -1},
		{"bad limit", "/api/v1/search?text=asthma&limit=-2", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, server, tt.url)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCount < 0 {
				return
			}
			if got := decodeSummaries(t, w); len(got) != tt.wantCount {
				t.Errorf("got %d results, want %d: %+v", len(got), tt.wantCount, got)
			}
		})
	}
}

func TestSearchEmptyIsArray(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/search?text=oncology")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

func TestSearchDownload(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/search?text=asthma&download=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=download.csv" {
		t.Errorf("Content-Disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if lines[0] != "study_id,nct_id,brief_title,detailed_description" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", len(lines))
	}
}

func TestQuickSearchEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/quick_search/metformin")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeSummaries(t, w)
	if len(got) != 1 || got[0].NCTID != "NCT00000002" {
		t.Errorf("results = %+v", got)
	}
}

func TestStudyEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/study/NCT00000001")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var detail struct {
		NCTID    string `json:"nct_id"`
		Phase    string `json:"phase"`
		Sponsors []struct {
			SponsorName string `json:"sponsor_name"`
		} `json:"sponsors"`
		Conditions    []json.RawMessage `json:"conditions"`
		Interventions []json.RawMessage `json:"interventions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if detail.NCTID != "NCT00000001" || detail.Phase != "Phase 2" {
		t.Errorf("detail = %+v", detail)
	}
	if len(detail.Sponsors) != 2 || len(detail.Conditions) != 2 {
		t.Errorf("relations = %+v", detail)
	}
	if detail.Interventions == nil {
		t.Error("interventions should be an empty array")
	}
}

func TestStudyNotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/study/NCT99999999")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["error"] != true {
		t.Errorf("error body = %v", body)
	}
}

func TestListingEndpoints(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/summary")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"num_studies":3}` {
		t.Errorf("summary = %d %q", w.Code, w.Body.String())
	}

	w = get(t, server, "/api/v1/studies?limit=2&offset=1")
	if got := decodeSummaries(t, w); len(got) != 2 || got[0].NCTID != "NCT00000002" {
		t.Errorf("studies = %+v", got)
	}

	w = get(t, server, "/api/v1/conditions?name=asth")
	var conditions []database.ConditionCount
	if err := json.Unmarshal(w.Body.Bytes(), &conditions); err != nil {
		t.Fatal(err)
	}
	if len(conditions) != 1 || conditions[0].NumStudies != 2 {
		t.Errorf("conditions = %+v", conditions)
	}

	w = get(t, server, "/api/v1/sponsors")
	var sponsors []database.SponsorCount
	if err := json.Unmarshal(w.Body.Bytes(), &sponsors); err != nil {
		t.Fatal(err)
	}
	if len(sponsors) != 3 {
		t.Errorf("sponsors = %+v", sponsors)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	w := get(t, server, "/api/v1/health")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestMiddleware(t *testing.T) {
	server, m := setupTestServer(t)

	w := get(t, server, "/api/v1/summary")
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want caller's", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("preflight status = %d", w.Code)
	}

	get(t, server, "/api/v1/study/NCT00000001")
	get(t, server, "/api/v1/study/NCT00000002")
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/study/{nct_id}", "200")); got != 2 {
		t.Errorf("study requests metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/summary", "200")); got != 2 {
		t.Errorf("summary requests metric = %v, want 2", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	get(t, server, "/api/v1/summary")
	w := get(t, server, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ctrake_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 2,,3 ")
	if err != nil || len(ids) != 3 || ids[2] != 3 {
		t.Errorf("parseIDs = %v, %v", ids, err)
	}
	if ids, err := parseIDs(""); err != nil || ids != nil {
		t.Errorf("parseIDs(\"\") = %v, %v", ids, err)
	}
	if _, err := parseIDs("1;2"); err == nil {
		t.Error("expected error for malformed list")
	}
}
