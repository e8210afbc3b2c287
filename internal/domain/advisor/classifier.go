package advisor

import (
	"strings"
	"unicode"
)

const defaultSecondaryThreshold = 2

// Classifier decides whether a query belongs to the finance domain before
// any outbound call is made.
type Classifier struct {
	symbols            map[string]struct{}
	companies          []string
	primary            []string
	secondary          []string
	phrases            []string
	secondaryThreshold int
}

// NewClassifier builds a classifier over the given tables. A threshold below
// one falls back to two corroborating secondary terms.
func NewClassifier(vocab Vocabulary, secondaryThreshold int) *Classifier {
	if secondaryThreshold < 1 {
		secondaryThreshold = defaultSecondaryThreshold
	}
	symbols := make(map[string]struct{}, len(vocab.Symbols))
	for _, s := range vocab.Symbols {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			symbols[s] = struct{}{}
		}
	}
	return &Classifier{
		symbols:            symbols,
		companies:          lowerAll(vocab.Companies),
		primary:            lowerAll(vocab.PrimaryTerms),
		secondary:          dedupe(lowerAll(vocab.SecondaryTerms)),
		phrases:            lowerAll(vocab.Phrases),
		secondaryThreshold: secondaryThreshold,
	}
}

// IsRelevant reports whether query is about stocks, trading or markets.
// Strong signals short-circuit; secondary terms need corroboration.
func (c *Classifier) IsRelevant(query string) bool {
	text := strings.ToLower(query)
	if strings.TrimSpace(text) == "" {
		return false
	}

	for _, token := range tokenize(text) {
		if _, ok := c.symbols[token]; ok {
			return true
		}
	}
	if containsAny(text, c.companies) || containsAny(text, c.primary) {
		return true
	}

	hits := 0
	for _, term := range c.secondary {
		if strings.Contains(text, term) {
			hits++
			if hits >= c.secondaryThreshold {
				return true
			}
		}
	}

	return containsAny(text, c.phrases)
}

// tokenize splits on anything that is not a letter or digit, so "$TSLA?"
// yields "tsla".
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := strings.ToLower(strings.TrimSpace(item)); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
