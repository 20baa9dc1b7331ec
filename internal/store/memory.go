package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"smartchat-backend/internal/models"
)

// MemoryStore keeps conversations in process memory. Used in tests and for
// local development without Redis; state does not survive a restart.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID][]models.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conversations: make(map[uuid.UUID][]models.Turn)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID uuid.UUID) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.conversations[sessionID]
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID uuid.UUID, turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[sessionID] = append(s.conversations[sessionID], turn)
	return nil
}

func (s *MemoryStore) TruncateAfterEditedUser(ctx context.Context, sessionID uuid.UUID, newContent string) (models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	truncated, edited, ok := truncateAfterEditedUser(s.conversations[sessionID], newContent)
	if !ok {
		return models.Turn{}, ErrNoUserTurn
	}
	s.conversations[sessionID] = truncated
	return edited, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, sessionID)
	return nil
}
