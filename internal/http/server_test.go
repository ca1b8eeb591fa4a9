package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"spese-insights/internal/auth"
	"spese-insights/internal/core"
	"spese-insights/internal/expenses"
	"spese-insights/internal/expenses/memory"
	"spese-insights/internal/log"
	"spese-insights/internal/services"
)

const testSecret = "test-secret"

type fakeGenerator struct {
	configured bool
	result     core.Insights
	err        error
	calls      int
	got        []core.Expense
}

func (f *fakeGenerator) Provider() string { return "Gemini" }
func (f *fakeGenerator) Configured() bool { return f.configured }
func (f *fakeGenerator) Generate(_ context.Context, items []core.Expense) (core.Insights, error) {
	f.calls++
	f.got = items
	return f.result, f.err
}

type failingStore struct{ err error }

func (f failingStore) Find(context.Context, core.Filter) ([]core.Expense, error) { return nil, f.err }
func (f failingStore) Ping(context.Context) error                                { return f.err }

type unclassifiedProvider struct{}

func (unclassifiedProvider) Insights(context.Context, string, services.InsightQuery) (core.Envelope, error) {
	return core.Envelope{}, errors.New("")
}

type panickingProvider struct{}

func (panickingProvider) Insights(context.Context, string, services.InsightQuery) (core.Envelope, error) {
	var totals map[string]int64
	totals["food"]++
	return core.Envelope{}, nil
}

func scenarioStore() *memory.Store {
	exp := func(owner string, day int, desc string, cents int64, cat string) core.Expense {
		return core.Expense{OwnerID: owner, Date: core.NewDate(2025, 6, day), Description: desc, Amount: core.Money{Cents: cents}, Category: cat}
	}
	return memory.New(
		exp("owner-1", 1, "Groceries", 4200, "food"),
		exp("owner-1", 4, "Lunch", 1200, "food"),
		exp("owner-1", 9, "Dinner", 3100, "food"),
		exp("owner-1", 2, "Metro", 150, "transport"),
		exp("owner-1", 6, "Taxi", 2300, "transport"),
		exp("owner-2", 3, "Not mine", 999, "food"),
	)
}

type store interface {
	expenses.Finder
	expenses.Pinger
}

func newTestServer(t *testing.T, store store, gen *fakeGenerator) *Server {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	svc := services.NewInsightService(store, gen, logger)
	return NewServer(":0", Options{
		Insights:  svc,
		Verifier:  auth.NewVerifier(testSecret, ""),
		Pinger:    store,
		Generator: gen,
		Logger:    logger,
	})
}

func authedRequest(t *testing.T, target, owner string) *http.Request {
	t.Helper()
	token, err := auth.NewVerifier(testSecret, "").Issue(owner, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

var mockInsights = core.Insights{
	TopCategories:   []core.CategorySpend{{Category: "food", Amount: 85, Percentage: 77.3}},
	Trends:          []core.Trend{{Description: "Food spend rising", Direction: "up"}},
	UnusualPatterns: "Large dinner on the 9th.",
	Suggestions:     []string{"Plan meals"},
	BudgetHealth:    "Stable.",
}

func TestInsights_FiveRecordsScenario(t *testing.T) {
	gen := &fakeGenerator{configured: true, result: mockInsights}
	srv := newTestServer(t, scenarioStore(), gen)

	rr := serve(srv, authedRequest(t, "/api/insights", "owner-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	env := decode[core.Envelope](t, rr)
	if env.ExpenseCount != 5 {
		t.Errorf("expenseCount = %d", env.ExpenseCount)
	}
	if env.Period != (core.Period{From: "All time", To: "Present"}) {
		t.Errorf("period = %+v", env.Period)
	}
	if !reflect.DeepEqual(env.Insights, mockInsights) {
		t.Errorf("insights = %+v", env.Insights)
	}
	if gen.calls != 1 || len(gen.got) != 5 {
		t.Errorf("generator calls=%d records=%d", gen.calls, len(gen.got))
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestInsights_NoDataForCategory(t *testing.T) {
	gen := &fakeGenerator{configured: false}
	srv := newTestServer(t, scenarioStore(), gen)

	rr := serve(srv, authedRequest(t, "/api/insights?category=travel", "owner-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	insights := raw["insights"].(map[string]any)
	if tc, ok := insights["topCategories"].([]any); !ok || len(tc) != 0 {
		t.Errorf("topCategories must encode as [], got %v", insights["topCategories"])
	}
	if insights["unusualPatterns"] != "No data available for analysis." {
		t.Errorf("unusualPatterns = %v", insights["unusualPatterns"])
	}
	if raw["expenseCount"].(float64) != 0 {
		t.Errorf("expenseCount = %v", raw["expenseCount"])
	}
	if raw["period"].(map[string]any)["from"] != "All time" {
		t.Errorf("period = %v", raw["period"])
	}
	if gen.calls != 0 {
		t.Error("generator invoked for empty result")
	}
}

func TestInsights_GeneratorNotConfigured(t *testing.T) {
	gen := &fakeGenerator{configured: false}
	srv := newTestServer(t, scenarioStore(), gen)

	rr := serve(srv, authedRequest(t, "/api/insights", "owner-1"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if body.Message != "Gemini API key is not configured on the server." {
		t.Errorf("message = %q", body.Message)
	}
	if body.Code != string(core.KindGeneratorUnavailable) {
		t.Errorf("code = %q", body.Code)
	}
	if gen.calls != 0 {
		t.Error("generator invoked without credential")
	}
}

func TestInsights_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		store      failingStore
		useStore   bool
		gen        *fakeGenerator
		target     string
		wantStatus int
		wantMsg    string
		wantCode   core.ErrorKind
	}{
		{
			name:       "store failure",
			store:      failingStore{err: errors.New("database is locked")},
			useStore:   true,
			gen:        &fakeGenerator{configured: true},
			target:     "/api/insights",
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "database is locked",
			wantCode:   core.KindStoreUnavailable,
		},
		{
			name:       "generator failure",
			gen:        &fakeGenerator{configured: true, err: errors.New("upstream timeout")},
			target:     "/api/insights",
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream timeout",
			wantCode:   core.KindGeneratorFailed,
		},
		{
			name:       "invalid date",
			gen:        &fakeGenerator{configured: true},
			target:     "/api/insights?startDate=last-week",
			wantStatus: http.StatusBadRequest,
			wantCode:   core.KindInvalidFilter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var srv *Server
			if tt.useStore {
				srv = newTestServer(t, tt.store, tt.gen)
			} else {
				srv = newTestServer(t, scenarioStore(), tt.gen)
			}
			rr := serve(srv, authedRequest(t, tt.target, "owner-1"))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			body := decode[errorBody](t, rr)
			if tt.wantMsg != "" && body.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMsg)
			}
			if body.Message == "" {
				t.Error("empty message")
			}
			if body.Code != string(tt.wantCode) {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestInsights_UnclassifiedErrorUsesFallback(t *testing.T) {
	srv := NewServer(":0", Options{
		Insights: unclassifiedProvider{},
		Verifier: auth.NewVerifier(testSecret, ""),
	})
	rr := serve(srv, authedRequest(t, "/api/insights", "owner-1"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if body.Message != "Failed to generate AI insights" || body.Code != string(core.KindInternal) {
		t.Errorf("body = %+v", body)
	}
}

func TestInsights_PanicRendersJSONFallback(t *testing.T) {
	srv := NewServer(":0", Options{
		Insights: panickingProvider{},
		Verifier: auth.NewVerifier(testSecret, ""),
	})
	req := authedRequest(t, "/api/insights", "owner-1")
	req.Header.Set("X-Request-ID", "req-panic-1")

	rr := serve(srv, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type = %q", ct)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "req-panic-1" {
		t.Errorf("request id = %q", got)
	}
	body := decode[errorBody](t, rr)
	if body.Message != fallbackErrorMessage || body.Code != string(core.KindInternal) {
		t.Errorf("body = %+v", body)
	}

	// The server keeps serving after a recovered panic.
	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusOK {
		t.Errorf("healthz after panic = %d", rr.Code)
	}
}

func TestInsights_PeriodLiterals(t *testing.T) {
	gen := &fakeGenerator{configured: true, result: mockInsights}
	srv := newTestServer(t, scenarioStore(), gen)

	rr := serve(srv, authedRequest(t, "/api/insights?startDate=2025-06-02&endDate=2025-06-06", "owner-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	env := decode[core.Envelope](t, rr)
	if env.Period != (core.Period{From: "2025-06-02", To: "2025-06-06"}) {
		t.Errorf("period = %+v", env.Period)
	}
	// Metro (2nd), Lunch (4th), Taxi (6th); both bounds inclusive.
	if env.ExpenseCount != 3 {
		t.Errorf("expenseCount = %d, want 3", env.ExpenseCount)
	}
}

func TestInsights_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), &fakeGenerator{configured: true})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/insights", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decode[errorBody](t, rr); body.Message != "Authentication required" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestInsights_OwnerIsolation(t *testing.T) {
	gen := &fakeGenerator{configured: true, result: mockInsights}
	srv := newTestServer(t, scenarioStore(), gen)

	rr := serve(srv, authedRequest(t, "/api/insights", "owner-2"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if env := decode[core.Envelope](t, rr); env.ExpenseCount != 1 {
		t.Errorf("expenseCount = %d", env.ExpenseCount)
	}
	for _, e := range gen.got {
		if e.OwnerID != "owner-2" {
			t.Fatalf("generator saw another owner's expense: %+v", e)
		}
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), &fakeGenerator{configured: false})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	body := decode[map[string]any](t, rr)
	gen := body["checks"].(map[string]any)["generator"].(map[string]any)
	if gen["status"] != "missing_api_key" || gen["provider"] != "Gemini" {
		t.Errorf("generator check = %v", gen)
	}
}

func TestReady_StoreDown(t *testing.T) {
	srv := newTestServer(t, failingStore{err: errors.New("no route to host")}, &fakeGenerator{configured: true})
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	srv := newTestServer(t, scenarioStore(), &fakeGenerator{})

	if rr := serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("not found status = %d", rr.Code)
	}
	if rr := serve(srv, httptest.NewRequest(http.MethodPost, "/healthz", nil)); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("method status = %d", rr.Code)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"untrusted proxy ignored", "203.0.113.5:1234", "198.51.100.1", "", "203.0.113.5"},
		{"trusted proxy xff", "10.0.0.2:80", "198.51.100.1, 10.0.0.3", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy bad header", "192.168.1.1:80", "garbage", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInsightQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/insights?startDate=2025-01-01&category=Food%20%26%20Drink", nil)
	got := ParseInsightQuery(req.URL.Query())
	want := services.InsightQuery{StartDate: "2025-01-01", Category: "Food & Drink"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
