package chatlog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL,
	text TEXT NOT NULL,
	outcome TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_conversation_idx
	ON chat_messages (user_id, conversation_id, created_at);
`

// PostgresRepository implements advisor.HistoryRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the transcript table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Append writes all messages in one batch.
func (r *PostgresRepository) Append(ctx context.Context, messages ...advisor.Message) error {
	if len(messages) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, msg := range messages {
		batch.Queue(`
			INSERT INTO chat_messages (id, conversation_id, user_id, role, text, outcome, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, msg.ID, msg.ConversationID, msg.UserID, string(msg.Role), msg.Text, outcomeParam(msg.Outcome), msg.CreatedAt)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// List returns one user's conversation in creation order.
func (r *PostgresRepository) List(ctx context.Context, userID, conversationID string) ([]advisor.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, user_id, role, text, outcome, created_at
		FROM chat_messages
		WHERE user_id = $1 AND conversation_id = $2
		ORDER BY created_at ASC, id ASC
	`, userID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []advisor.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (advisor.Message, error) {
	var (
		msg     advisor.Message
		role    string
		outcome *string
	)
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &role, &msg.Text, &outcome, &msg.CreatedAt); err != nil {
		return advisor.Message{}, err
	}
	msg.Role = advisor.Role(role)
	if outcome != nil {
		msg.Outcome = advisor.Stage(*outcome)
	}
	return msg, nil
}

// outcomeParam stores user messages, which have no outcome, as NULL.
func outcomeParam(outcome advisor.Stage) *string {
	if outcome == "" {
		return nil
	}
	v := string(outcome)
	return &v
}

var _ advisor.HistoryRepository = (*PostgresRepository)(nil)
