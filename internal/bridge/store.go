package bridge

import (
	"context"
	"sync"

	"github.com/nao1215/privacylens/internal/model"
)

// Store keeps the current report of each tab. Get returns nil without an
// error when a tab has no report.
type Store interface {
	Put(ctx context.Context, tabID int, report *model.AnalysisReport) error
	Get(ctx context.Context, tabID int) (*model.AnalysisReport, error)
	Delete(ctx context.Context, tabID int) error
}

// MemoryStore is an in-process Store. Reports are copied on the way in
// and out, so callers never share a report with the store.
type MemoryStore struct {
	mu      sync.Mutex
	reports map[int]*model.AnalysisReport
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[int]*model.AnalysisReport)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, tabID int, report *model.AnalysisReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[tabID] = report.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, tabID int) (*model.AnalysisReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[tabID].Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, tabID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, tabID)
	return nil
}

// Len returns the number of stored reports.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
