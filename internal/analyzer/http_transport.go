package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/errs"
)

const (
	defaultAnalyzeTimeout = 60 * time.Second
	maxRequestBody        = 1 << 20 // 1 MB
)

var (
	errURLRequired        = errors.New("the \"url\" field is required")
	errEmailRequired      = errors.New("the \"email\" field is required")
	errAnalysisIDRequired = errors.New("the \"analysisId\" field must be a positive integer")
)

// Transport handles HTTP requests for readiness analysis.
type Transport struct {
	service        *Service
	logger         *slog.Logger
	analyzeTimeout time.Duration
}

// NewTransport creates an HTTP transport backed by the given service. Each
// analysis is cut off after analyzeTimeout; zero selects 60 seconds.
func NewTransport(service *Service, logger *slog.Logger, analyzeTimeout time.Duration) *Transport {
	if analyzeTimeout <= 0 {
		analyzeTimeout = defaultAnalyzeTimeout
	}
	return &Transport{service: service, logger: logger, analyzeTimeout: analyzeTimeout}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /analyze", t.handleAnalyze)
	mux.HandleFunc("GET /analyses/{id}", t.handleGetAnalysis)
	mux.HandleFunc("POST /analyses/{id}/claim", t.handleClaim)
	mux.HandleFunc("GET /history", t.handleHistory)
	mux.HandleFunc("POST /leads", t.handleLead)
	mux.HandleFunc("GET /me", t.handleMe)
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (r analyzeRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

type leadRequest struct {
	Email      string `json:"email"`
	AnalysisID int64  `json:"analysisId"`
}

func (r leadRequest) validate() error {
	if r.Email == "" {
		return errEmailRequired
	}
	if r.AnalysisID < 1 {
		return errAnalysisIDRequired
	}
	return nil
}

type leadResponse struct {
	Success bool `json:"success"`
}

type meResponse struct {
	UserID *int64 `json:"userId"`
}

func (t *Transport) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !t.decode(w, r, &req, "Invalid request body. Please send a JSON object with a \"url\" field.") {
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.analyzeTimeout)
	defer cancel()

	result, err := t.service.Analyze(ctx, req.URL)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := t.pathID(w, r)
	if !ok {
		return
	}

	result, err := t.service.Get(r.Context(), id)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := t.pathID(w, r)
	if !ok {
		return
	}

	result, err := t.service.Claim(r.Context(), id)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleHistory(w http.ResponseWriter, r *http.Request) {
	list, err := t.service.History(r.Context())
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, list)
}

func (t *Transport) handleLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if !t.decode(w, r, &req, "Invalid request body. Please send a JSON object with \"email\" and \"analysisId\" fields.") {
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := t.service.SubmitLead(r.Context(), req.Email, req.AnalysisID); err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, leadResponse{Success: true})
}

func (t *Transport) handleMe(w http.ResponseWriter, r *http.Request) {
	t.renderJSON(w, http.StatusOK, meResponse{UserID: t.service.CurrentUser(r.Context())})
}

// decode reads a size-capped JSON body into dst, rendering a 400 with
// message on failure.
func (t *Transport) decode(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		t.renderError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

func (t *Transport) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		t.renderError(w, http.StatusBadRequest, "Invalid analysis id.")
		return 0, false
	}
	return id, true
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Unauthorized:
			status = http.StatusUnauthorized
		case errs.Forbidden:
			status = http.StatusForbidden
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.Unreachable:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.ParsingFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.logger.Error("unhandled service error", "error", err)
	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
