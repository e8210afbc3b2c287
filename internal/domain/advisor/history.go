package advisor

import "context"

// HistoryRepository stores conversation transcripts.
type HistoryRepository interface {
	Append(ctx context.Context, messages ...Message) error
	// List returns the messages of one conversation owned by userID, oldest
	// first.
	List(ctx context.Context, userID, conversationID string) ([]Message, error)
}
