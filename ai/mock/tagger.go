package mock

import (
	"context"
	"sync"

	"github.com/poiesic/witness/extract"
)

// MockTagger is a test double for extract.Tagger.
type MockTagger struct {
	// TagFunc is called by Tag if set. If nil, Tag returns no tags.
	TagFunc func(ctx context.Context, text string) ([]extract.Tag, error)

	mu        sync.Mutex
	callCount int
}

// NewMockTagger creates a mock tagger that finds nothing.
func NewMockTagger() *MockTagger {
	return &MockTagger{}
}

// Tag delegates to TagFunc.
func (m *MockTagger) Tag(ctx context.Context, text string) ([]extract.Tag, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.TagFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return nil, nil
}

// CallCount returns the number of Tag calls.
func (m *MockTagger) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
