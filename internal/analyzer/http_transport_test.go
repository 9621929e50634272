package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bahjat/llm-readiness-checker/internal/identity"
	"github.com/Bahjat/llm-readiness-checker/internal/model"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/errs"
	"github.com/Bahjat/llm-readiness-checker/internal/storage"
)

// mockProvider implements ReadinessProvider for testing.
type mockProvider struct {
	result *model.AnalysisResult
	err    error
}

func (m *mockProvider) Analyze(_ context.Context, _ string) (*model.AnalysisResult, error) {
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestMux(provider ReadinessProvider, store Store) *http.ServeMux {
	logger := discardLogger()
	svc := NewService(provider, store, logger)
	transport := NewTransport(svc, logger, time.Minute)
	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)
	return mux
}

func scoredResult(score int) *model.AnalysisResult {
	r := model.NewAnalysisResult()
	r.Score = score
	r.HasLlmsTxt = true
	r.Details.Recommendations = []string{"Consider adding an MCP server."}
	return r
}

func serve(mux *http.ServeMux, method, target, body string, userID ...int64) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if len(userID) > 0 {
		req = req.WithContext(identity.NewContext(req.Context(), userID[0]))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze_Success(t *testing.T) {
	mux := newTestMux(&mockProvider{result: scoredResult(15)}, storage.NewMemory())

	rec := serve(mux, http.MethodPost, "/analyze", `{"url": "https://example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var result model.StoredAnalysis
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.ID != 1 || result.Score != 15 || !result.HasLlmsTxt {
		t.Errorf("result = %+v", result)
	}
	if result.URL != "https://example.com" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.UserID != nil {
		t.Errorf("UserID = %d, want nil for anonymous request", *result.UserID)
	}
}

func TestHandleAnalyze_ResponseShape(t *testing.T) {
	mux := newTestMux(&mockProvider{result: scoredResult(15)}, storage.NewMemory())

	rec := serve(mux, http.MethodPost, "/analyze", `{"url": "https://example.com"}`)

	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"id", "userId", "url", "createdAt", "score", "hasJsonApi", "hasLlmsTxt", "hasMcpServer", "details"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	details, _ := raw["details"].(map[string]any)
	for _, key := range []string{"apiEndpoints", "feeds", "llmsTxtContent", "jsonLdData", "semanticTags", "metaTags", "recommendations"} {
		if _, ok := details[key]; !ok {
			t.Errorf("details missing %q", key)
		}
	}
}

func TestHandleAnalyze_SignedInOwnsResult(t *testing.T) {
	mux := newTestMux(&mockProvider{result: scoredResult(15)}, storage.NewMemory())

	rec := serve(mux, http.MethodPost, "/analyze", `{"url": "https://example.com"}`, 42)

	var result model.StoredAnalysis
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.UserID == nil || *result.UserID != 42 {
		t.Errorf("UserID = %v, want 42", result.UserID)
	}
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty url", body: `{"url": ""}`},
		{name: "missing body", body: ""},
		{name: "malformed json", body: `{invalid json`},
		{name: "oversized body", body: `{"url": "` + strings.Repeat("a", maxRequestBody) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&mockProvider{}, storage.NewMemory())

			rec := serve(mux, http.MethodPost, "/analyze", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleAnalyze_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid input",
			err:  &errs.AppError{Kind: errs.InvalidInput, Message: "bad url"},
			want: http.StatusBadRequest,
		},
		{
			name: "unreachable",
			err:  &errs.AppError{Kind: errs.Unreachable, Message: "cannot reach", UpstreamStatus: 404},
			want: http.StatusBadGateway,
		},
		{
			name: "timeout",
			err:  &errs.AppError{Kind: errs.Timeout, Message: "Analysis timed out.", Cause: context.DeadlineExceeded},
			want: http.StatusGatewayTimeout,
		},
		{
			name: "unknown",
			err:  &errs.AppError{Kind: errs.Unknown, Message: "boom"},
			want: http.StatusInternalServerError,
		},
		{
			name: "plain error",
			err:  io.ErrUnexpectedEOF,
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&mockProvider{err: tt.err}, storage.NewMemory())

			rec := serve(mux, http.MethodPost, "/analyze", `{"url": "https://example.com"}`)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}

			var resp model.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.StatusCode != tt.want || resp.Message == "" {
				t.Errorf("error response = %+v", resp)
			}
		})
	}
}

func TestHandleAnalyze_WrongMethod(t *testing.T) {
	mux := newTestMux(&mockProvider{}, storage.NewMemory())

	rec := serve(mux, http.MethodGet, "/analyze", "")

	// ServeMux returns 405 for method mismatch.
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleGetAnalysis(t *testing.T) {
	store := storage.NewMemory()
	_, _ = store.CreateAnalysis(context.Background(), "https://example.com", nil, scoredResult(30))
	mux := newTestMux(&mockProvider{}, store)

	tests := []struct {
		path string
		want int
	}{
		{path: "/analyses/1", want: http.StatusOK},
		{path: "/analyses/2", want: http.StatusNotFound},
		{path: "/analyses/abc", want: http.StatusBadRequest},
		{path: "/analyses/0", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(mux, http.MethodGet, tt.path, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleClaim(t *testing.T) {
	ctx := context.Background()
	owner := int64(7)

	store := storage.NewMemory()
	_, _ = store.CreateAnalysis(ctx, "https://anon.example", nil, scoredResult(10))
	_, _ = store.CreateAnalysis(ctx, "https://owned.example", &owner, scoredResult(20))
	mux := newTestMux(&mockProvider{}, store)

	tests := []struct {
		name   string
		path   string
		userID []int64
		want   int
	}{
		{name: "anonymous", path: "/analyses/1/claim", want: http.StatusUnauthorized},
		{name: "missing", path: "/analyses/99/claim", userID: []int64{7}, want: http.StatusNotFound},
		{name: "owned by another", path: "/analyses/2/claim", userID: []int64{8}, want: http.StatusForbidden},
		{name: "already owned", path: "/analyses/2/claim", userID: []int64{7}, want: http.StatusOK},
		{name: "unowned", path: "/analyses/1/claim", userID: []int64{9}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, tt.path, "", tt.userID...)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	a, _ := store.GetAnalysis(ctx, 1)
	if a.UserID == nil || *a.UserID != 9 {
		t.Errorf("analysis 1 owner = %v, want 9", a.UserID)
	}
}

func TestHandleHistory(t *testing.T) {
	ctx := context.Background()
	user := int64(3)

	store := storage.NewMemory()
	_, _ = store.CreateAnalysis(ctx, "https://first.example", &user, scoredResult(10))
	_, _ = store.CreateAnalysis(ctx, "https://other.example", nil, scoredResult(10))
	_, _ = store.CreateAnalysis(ctx, "https://second.example", &user, scoredResult(10))
	mux := newTestMux(&mockProvider{}, store)

	if rec := serve(mux, http.MethodGet, "/history", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec := serve(mux, http.MethodGet, "/history", "", user)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var list []model.StoredAnalysis
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 2 || list[0].URL != "https://second.example" || list[1].URL != "https://first.example" {
		t.Errorf("history = %+v", list)
	}
}

func TestHandleLead(t *testing.T) {
	store := storage.NewMemory()
	_, _ = store.CreateAnalysis(context.Background(), "https://example.com", nil, scoredResult(64))
	mux := newTestMux(&mockProvider{}, store)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid", body: `{"email": "ops@example.com", "analysisId": 1}`, want: http.StatusOK},
		{name: "invalid email", body: `{"email": "not-an-email", "analysisId": 1}`, want: http.StatusBadRequest},
		{name: "missing email", body: `{"analysisId": 1}`, want: http.StatusBadRequest},
		{name: "missing analysis id", body: `{"email": "ops@example.com"}`, want: http.StatusBadRequest},
		{name: "unknown analysis", body: `{"email": "ops@example.com", "analysisId": 5}`, want: http.StatusNotFound},
		{name: "malformed", body: `{"email":`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, "/leads", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestHandleMe(t *testing.T) {
	mux := newTestMux(&mockProvider{}, storage.NewMemory())

	if rec := serve(mux, http.MethodGet, "/me", ""); strings.TrimSpace(rec.Body.String()) != `{"userId":null}` {
		t.Errorf("anonymous body = %s", rec.Body.String())
	}
	if rec := serve(mux, http.MethodGet, "/me", "", 12); strings.TrimSpace(rec.Body.String()) != `{"userId":12}` {
		t.Errorf("signed-in body = %s", rec.Body.String())
	}
}
