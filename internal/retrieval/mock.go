package retrieval

import (
	"context"
	"sync/atomic"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// MockRetriever is a Retriever for testing.
type MockRetriever struct {
	// Configurable behavior
	Passages []types.Passage
	Err      error

	// State
	requestCount atomic.Int64
	lastQuery    atomic.Pointer[Query]
}

// NewMockRetriever creates a mock returning the given passages.
func NewMockRetriever(passages ...types.Passage) *MockRetriever {
	return &MockRetriever{Passages: passages}
}

// Retrieve returns the configured passages, honoring the query limit.
func (m *MockRetriever) Retrieve(ctx context.Context, q Query) ([]types.Passage, error) {
	m.requestCount.Add(1)
	m.lastQuery.Store(&q)
	if m.Err != nil {
		return nil, m.Err
	}
	out := append([]types.Passage(nil), m.Passages...)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// RequestCount returns the number of Retrieve calls.
func (m *MockRetriever) RequestCount() int64 {
	return m.requestCount.Load()
}

// LastQuery returns the most recent query, or nil.
func (m *MockRetriever) LastQuery() *Query {
	return m.lastQuery.Load()
}
