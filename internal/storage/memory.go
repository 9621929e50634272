package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
)

// Memory is an in-process Store. Data is lost when the process exits.
// Results are deep-copied on the way in and out, so callers never share
// state with the stored rows.
type Memory struct {
	mu       sync.Mutex
	analyses []model.StoredAnalysis
	leads    []model.Lead
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) CreateAnalysis(_ context.Context, url string, userID *int64, r *model.AnalysisResult) (*model.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := model.StoredAnalysis{
		ID:             int64(len(m.analyses) + 1),
		UserID:         cloneID(userID),
		URL:            url,
		CreatedAt:      m.now(),
		AnalysisResult: *r,
	}
	a.Details = r.Details.Clone()
	m.analyses = append(m.analyses, a)
	return cloneAnalysis(a), nil
}

func (m *Memory) GetAnalysis(_ context.Context, id int64) (*model.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index(id)
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAnalysis(m.analyses[i]), nil
}

func (m *Memory) ListUserAnalyses(_ context.Context, userID int64) ([]model.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.StoredAnalysis{}
	for _, a := range slices.Backward(m.analyses) {
		if a.UserID != nil && *a.UserID == userID {
			out = append(out, *cloneAnalysis(a))
		}
	}
	return out, nil
}

func (m *Memory) LinkAnalysisToUser(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index(id)
	if !ok {
		return ErrNotFound
	}
	owner := m.analyses[i].UserID
	if owner != nil && *owner != userID {
		return ErrAlreadyClaimed
	}
	m.analyses[i].UserID = &userID
	return nil
}

func (m *Memory) CreateLead(_ context.Context, lead model.Lead) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index(lead.AnalysisID); !ok {
		return nil, ErrNotFound
	}
	lead.ID = int64(len(m.leads) + 1)
	lead.CreatedAt = m.now()
	m.leads = append(m.leads, lead)
	return &lead, nil
}

func (m *Memory) Close() {}

// index relies on IDs being assigned sequentially from 1.
func (m *Memory) index(id int64) (int, bool) {
	if id < 1 || id > int64(len(m.analyses)) {
		return 0, false
	}
	return int(id - 1), true
}

func cloneAnalysis(a model.StoredAnalysis) *model.StoredAnalysis {
	a.UserID = cloneID(a.UserID)
	a.Details = a.Details.Clone()
	return &a
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
