package analyzer

import (
	"context"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
)

// ReadinessProvider defines the contract for any analysis engine.
type ReadinessProvider interface {
	Analyze(ctx context.Context, targetURL string) (*model.AnalysisResult, error)
}

// Store persists analyses and leads. storage.Postgres and storage.Memory
// both satisfy it.
type Store interface {
	CreateAnalysis(ctx context.Context, url string, userID *int64, result *model.AnalysisResult) (*model.StoredAnalysis, error)
	GetAnalysis(ctx context.Context, id int64) (*model.StoredAnalysis, error)
	ListUserAnalyses(ctx context.Context, userID int64) ([]model.StoredAnalysis, error)
	LinkAnalysisToUser(ctx context.Context, id, userID int64) error
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
}
