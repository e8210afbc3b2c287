package chatlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

func TestMemoryRepositoryScopesByUserAndConversation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	t0 := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx,
		advisor.Message{ID: "2", ConversationID: "c1", UserID: "u1", Role: advisor.RoleAssistant, Text: "reply", CreatedAt: t0.Add(time.Second)},
		advisor.Message{ID: "1", ConversationID: "c1", UserID: "u1", Role: advisor.RoleUser, Text: "AAPL?", CreatedAt: t0},
		advisor.Message{ID: "3", ConversationID: "c1", UserID: "u2", Role: advisor.RoleUser, Text: "other", CreatedAt: t0},
		advisor.Message{ID: "4", ConversationID: "c2", UserID: "u1", Role: advisor.RoleUser, Text: "other", CreatedAt: t0},
	))

	got, err := repo.List(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "1", got[0].ID)
	require.Equal(t, "2", got[1].ID)

	got, err = repo.List(ctx, "u3", "c1")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryRepositoryListIsACopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, advisor.Message{ID: "1", ConversationID: "c1", UserID: "u1", Text: "MSFT?"}))

	got, err := repo.List(ctx, "u1", "c1")
	require.NoError(t, err)
	got[0].Text = "mutated"

	again, err := repo.List(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Equal(t, "MSFT?", again[0].Text)
}
