package advisor

import (
	"time"

	"github.com/yanqian/ai-stockassistant/pkg/metrics"
)

// Source tells where a reply came from.
type Source string

const (
	SourcePolicy Source = "policy"
	SourceCache  Source = "cache"
	SourceLLM    Source = "llm"
)

// AnonymousUser owns conversations when no token subject is known.
const AnonymousUser = "anonymous"

// Request is a single chat question.
type Request struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"-"`
}

// Response always carries a displayable reply, including for failures.
type Response struct {
	ConversationID string              `json:"conversationId"`
	Query          string              `json:"query"`
	Reply          string              `json:"reply"`
	Outcome        Stage               `json:"outcome"`
	Source         Source              `json:"source"`
	ErrorKind      ErrorKind           `json:"errorKind,omitempty"`
	DurationMs     int64               `json:"durationMs"`
	TokenUsage     *metrics.TokenUsage `json:"tokenUsage,omitempty"`
	Stages         []Stage             `json:"-"`
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript line.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"-"`
	Role           Role      `json:"role"`
	Text           string    `json:"text"`
	Outcome        Stage     `json:"outcome,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
