package memory

import (
	"context"
	"sync"

	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type AuditStore struct {
	mu      sync.Mutex
	entries []*domain.AuditLogEntry
	// FailAppend makes Append return this error; exercises the
	// fire-and-forget decoupling in tests.
	FailAppend error
}

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

var _ ports.AuditRepository = (*AuditStore)(nil)

func (s *AuditStore) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppend != nil {
		return s.FailAppend
	}
	cloned := *entry
	s.entries = append(s.entries, &cloned)
	return nil
}

func (s *AuditStore) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var out []*domain.AuditLogEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		entry := s.entries[i]
		if filter.Actor != "" && entry.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.TargetType != "" && entry.TargetType != filter.TargetType {
			continue
		}
		cloned := *entry
		out = append(out, &cloned)
	}
	return out, nil
}

func (s *AuditStore) All() []domain.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]domain.AuditLogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	return entries
}

func (s *AuditStore) Reset(entries []domain.AuditLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*domain.AuditLogEntry, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		s.entries = append(s.entries, &entry)
	}
}
