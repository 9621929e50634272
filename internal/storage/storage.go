// Package storage persists analyses and leads.
//
// Two implementations share the same semantics: Postgres for deployments
// with a DATABASE_URL and Memory for local runs and tests.
package storage

import (
	"context"
	_ "embed"
	"errors"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
)

var (
	// ErrNotFound is returned when the requested analysis does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrAlreadyClaimed is returned when linking an analysis that belongs to
	// another user.
	ErrAlreadyClaimed = errors.New("storage: analysis owned by another user")
)

//go:embed schema.sql
var schema string

// Store is the persistence contract shared by every implementation.
type Store interface {
	CreateAnalysis(ctx context.Context, url string, userID *int64, result *model.AnalysisResult) (*model.StoredAnalysis, error)
	GetAnalysis(ctx context.Context, id int64) (*model.StoredAnalysis, error)
	ListUserAnalyses(ctx context.Context, userID int64) ([]model.StoredAnalysis, error)
	LinkAnalysisToUser(ctx context.Context, id, userID int64) error
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	Close()
}
