package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/Bahjat/llm-readiness-checker/internal/identity"
	"github.com/Bahjat/llm-readiness-checker/internal/model"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/errs"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/metrics"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/requestid"
	"github.com/Bahjat/llm-readiness-checker/internal/readiness"
	"github.com/Bahjat/llm-readiness-checker/internal/storage"
)

var (
	errAnalysisNotFound = &errs.AppError{Kind: errs.NotFound, Message: "Analysis not found."}
	errSignInRequired   = &errs.AppError{Kind: errs.Unauthorized, Message: "You must be signed in to do that."}
	errClaimedByOther   = &errs.AppError{Kind: errs.Forbidden, Message: "This analysis belongs to another user."}
	errInvalidEmail     = &errs.AppError{Kind: errs.InvalidInput, Message: "Please provide a valid email address."}
)

// Service runs analyses through a ReadinessProvider, persists them and
// manages ownership and leads.
type Service struct {
	provider ReadinessProvider
	store    Store
	logger   *slog.Logger
}

// NewService creates a Service backed by the given provider and store.
func NewService(provider ReadinessProvider, store Store, logger *slog.Logger) *Service {
	return &Service{provider: provider, store: store, logger: logger}
}

// Analyze runs the provider, stores the result under the signed-in user if
// there is one, and logs the outcome.
func (s *Service) Analyze(ctx context.Context, targetURL string) (*model.StoredAnalysis, error) {
	logger := s.logger.With("url", targetURL, requestid.Attr(ctx))
	start := time.Now()

	result, err := s.provider.Analyze(ctx, targetURL)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && errs.KindOf(err) != errs.Timeout {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "Analysis timed out. The target URL may be slow to respond.",
				Cause:   err,
			}
		}

		attrs := []any{"error", err}
		var appErr *errs.AppError
		if errors.As(err, &appErr) && appErr.UpstreamStatus != 0 {
			attrs = append(attrs, "target_status", appErr.UpstreamStatus)
		}
		logger.Error("analysis failed", attrs...)
		metrics.AnalysesTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	stored, err := s.store.CreateAnalysis(ctx, targetURL, s.CurrentUser(ctx), result)
	if err != nil {
		logger.Error("failed to store analysis", "error", err)
		metrics.AnalysesTotal.WithLabelValues(outcome(err)).Inc()
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	for _, sig := range readiness.Signals(result) {
		if sig.Present {
			metrics.SignalsDetected.WithLabelValues(sig.Name).Inc()
		}
	}

	logger.Info("analysis complete",
		"analysis_id", stored.ID,
		"score", result.Score,
		"has_llms_txt", result.HasLlmsTxt,
		"has_mcp_server", result.HasMCPServer,
		"api_endpoints", len(result.Details.APIEndpoints),
		"recommendations", len(result.Details.Recommendations),
	)
	return stored, nil
}

// Get returns a stored analysis by id.
func (s *Service) Get(ctx context.Context, id int64) (*model.StoredAnalysis, error) {
	a, err := s.store.GetAnalysis(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

// History lists the signed-in user's analyses, newest first.
func (s *Service) History(ctx context.Context) ([]model.StoredAnalysis, error) {
	userID, ok := identity.UserID(ctx)
	if !ok {
		return nil, errSignInRequired
	}

	list, err := s.store.ListUserAnalyses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return list, nil
}

// Claim assigns an anonymous analysis to the signed-in user. Claiming an
// analysis the user already owns returns it unchanged.
func (s *Service) Claim(ctx context.Context, id int64) (*model.StoredAnalysis, error) {
	userID, ok := identity.UserID(ctx)
	if !ok {
		return nil, errSignInRequired
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != nil {
		if *a.UserID != userID {
			return nil, errClaimedByOther
		}
		return a, nil
	}

	err = s.store.LinkAnalysisToUser(ctx, id, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, errAnalysisNotFound
	case errors.Is(err, storage.ErrAlreadyClaimed):
		return nil, errClaimedByOther
	case err != nil:
		return nil, fmt.Errorf("claim analysis: %w", err)
	}

	s.logger.Info("analysis claimed",
		"analysis_id", id,
		"user_id", userID,
		requestid.Attr(ctx),
	)
	a.UserID = &userID
	return a, nil
}

// SubmitLead records an email address against an existing analysis.
func (s *Service) SubmitLead(ctx context.Context, email string, analysisID int64) (*model.Lead, error) {
	email = strings.TrimSpace(email)
	if !govalidator.IsEmail(email) {
		return nil, errInvalidEmail
	}

	a, err := s.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	lead, err := s.store.CreateLead(ctx, model.Lead{
		Email:      email,
		AnalysisID: a.ID,
		URL:        a.URL,
		Score:      a.Score,
	})
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	metrics.LeadsTotal.Inc()
	s.logger.Info("lead captured",
		"analysis_id", a.ID,
		"score", a.Score,
		requestid.Attr(ctx),
	)
	return lead, nil
}

// CurrentUser returns the signed-in user's id, or nil for anonymous callers.
func (s *Service) CurrentUser(ctx context.Context) *int64 {
	userID, ok := identity.UserID(ctx)
	if !ok {
		return nil
	}
	return &userID
}

func outcome(err error) string {
	switch errs.KindOf(err) {
	case errs.InvalidInput:
		return "invalid_input"
	case errs.Unreachable:
		return "unreachable"
	case errs.Timeout:
		return "timeout"
	default:
		return "error"
	}
}
