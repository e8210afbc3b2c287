package chatlog

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

type conversationKey struct {
	userID         string
	conversationID string
}

// MemoryRepository is an in-memory advisor.HistoryRepository used for tests/dev.
type MemoryRepository struct {
	mu            sync.RWMutex
	conversations map[conversationKey][]advisor.Message
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{conversations: make(map[conversationKey][]advisor.Message)}
}

// Append implements advisor.HistoryRepository.
func (r *MemoryRepository) Append(_ context.Context, messages ...advisor.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range messages {
		key := conversationKey{userID: msg.UserID, conversationID: msg.ConversationID}
		r.conversations[key] = append(r.conversations[key], msg)
	}
	return nil
}

// List implements advisor.HistoryRepository.
func (r *MemoryRepository) List(_ context.Context, userID, conversationID string) ([]advisor.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.conversations[conversationKey{userID: userID, conversationID: conversationID}]
	out := append([]advisor.Message(nil), stored...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ advisor.HistoryRepository = (*MemoryRepository)(nil)
