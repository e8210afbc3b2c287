package tokenizer

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used when none is configured.
const DefaultEncoding = "cl100k_base"

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// Counter estimates token counts for usage reporting. It falls back to a
// word and character heuristic when the BPE tables cannot be loaded.
type Counter struct {
	enc encoder
}

// NewCounter loads the named encoding. Loading may need network access the
// first time, so failures are logged and the heuristic is used instead.
func NewCounter(encoding string, logger *slog.Logger) *Counter {
	if strings.TrimSpace(encoding) == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		logger.Warn("token encoding unavailable, using heuristic estimate", "encoding", encoding, "error", err)
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count implements advisor.TokenCounter.
func (c *Counter) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if c.enc == nil {
		return estimate(text), nil
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

// estimate blends a per-word and a four-characters-per-token guess.
func estimate(text string) int {
	words := len(strings.Fields(text))
	chars := len(text)
	n := (words + chars/4) / 2
	if n == 0 {
		return 1
	}
	return n
}
