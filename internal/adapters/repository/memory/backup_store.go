package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type BackupStore struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]*domain.BackupSnapshot
}

func NewBackupStore() *BackupStore {
	return &BackupStore{snaps: make(map[uuid.UUID]*domain.BackupSnapshot)}
}

var _ ports.BackupRepository = (*BackupStore)(nil)

func (s *BackupStore) SaveSnapshot(ctx context.Context, snap *domain.BackupSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *snap
	cloned.Payload = append([]byte(nil), snap.Payload...)
	s.snaps[snap.ID] = &cloned
	return nil
}

func (s *BackupStore) FinalizeSnapshot(ctx context.Context, id uuid.UUID, status domain.BackupStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return domain.ErrBackupNotFound
	}
	snap.Status = status
	return nil
}

func (s *BackupStore) GetSnapshot(ctx context.Context, id uuid.UUID) (*domain.BackupSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return nil, domain.ErrBackupNotFound
	}
	cloned := *snap
	cloned.Payload = append([]byte(nil), snap.Payload...)
	return &cloned, nil
}

func (s *BackupStore) ListSnapshots(ctx context.Context) ([]*domain.BackupSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := make([]*domain.BackupSnapshot, 0, len(s.snaps))
	for _, snap := range s.snaps {
		cloned := *snap
		cloned.Payload = nil
		snaps = append(snaps, &cloned)
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps, nil
}

func (s *BackupStore) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

// Corrupt flips bytes in a stored snapshot's payload without updating
// the checksum; restore tests use it to trigger the mismatch path.
func (s *BackupStore) Corrupt(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.snaps[id]; ok && len(snap.Payload) > 0 {
		snap.Payload[0] ^= 0xff
	}
}
