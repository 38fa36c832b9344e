package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]*Submission),
	}
}

// paginateIDs applies cursor-based pagination to a sorted slice of IDs.
// Returns the page and the next page token (empty if no more pages).
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	sort.Strings(ids)

	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
		}
		ids = ids[sort.SearchStrings(ids, cursorID+"\x00"):]
	}

	var nextToken string
	if int32(len(ids)) > pageSize {
		ids = ids[:pageSize]
		nextToken = EncodePageToken(ids[pageSize-1])
	}
	return ids, nextToken, nil
}

func (m *MemoryStore) CreateSubmission(ctx context.Context, s *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[s.ID]; ok {
		return ErrExists
	}
	cp := *s
	m.submissions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListSubmissions(ctx context.Context, pageSize int32, pageToken string) ([]*Submission, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.submissions))
	for id := range m.submissions {
		ids = append(ids, id)
	}
	page, next, err := paginateIDs(ids, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	result := make([]*Submission, 0, len(page))
	for _, id := range page {
		cp := *m.submissions[id]
		result = append(result, &cp)
	}
	return result, next, nil
}

func (m *MemoryStore) DeleteSubmissionsBefore(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.submissions {
		if s.CreatedAt.Before(before) {
			delete(m.submissions, id)
			n++
		}
	}
	return n, nil
}
