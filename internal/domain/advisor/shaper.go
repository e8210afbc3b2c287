package advisor

import (
	"regexp"
	"strings"
)

const bullet = "•"

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// ShapeResponse normalizes model output for display: paragraphs become
// bullets when the text has none, sentences carrying any of disclaimers are
// dropped, and blank-line runs are capped at one empty line.
func ShapeResponse(raw string, disclaimers []string) string {
	shaped, stripped := stripDisclaimers(bulletize(raw), disclaimers)
	shaped = excessNewlines.ReplaceAllString(shaped, "\n\n")
	if stripped {
		shaped = strings.TrimSpace(shaped)
	}
	return shaped
}

func bulletize(text string) string {
	if strings.Contains(text, bullet) || strings.Contains(text, "-") {
		return text
	}
	chunks := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if clean := strings.TrimSpace(chunk); clean != "" {
			paragraphs = append(paragraphs, clean)
		}
	}
	if len(paragraphs) < 2 {
		return text
	}
	for i, p := range paragraphs {
		paragraphs[i] = bullet + " " + p
	}
	return strings.Join(paragraphs, "\n")
}

func stripDisclaimers(text string, disclaimers []string) (string, bool) {
	stripped := false
	for _, phrase := range disclaimers {
		if phrase == "" {
			continue
		}
		for {
			idx := indexFold(text, phrase)
			if idx < 0 {
				break
			}
			start, end := sentenceBounds(text, idx, idx+len(phrase))
			text = text[:start] + text[end:]
			stripped = true
		}
	}
	return text, stripped
}

func isSentenceDelimiter(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// sentenceBounds widens [from, to) to the enclosing sentence. The sentence
// starts right after the nearest delimiter before from (or at 0) and ends
// just past the first delimiter at or after to (or at len(text)).
func sentenceBounds(text string, from, to int) (int, int) {
	start := 0
	for i := from - 1; i >= 0; i-- {
		if isSentenceDelimiter(text[i]) {
			start = i + 1
			break
		}
	}
	end := len(text)
	for i := to; i < len(text); i++ {
		if isSentenceDelimiter(text[i]) {
			end = i + 1
			break
		}
	}
	return start, end
}

// indexFold is a case-insensitive strings.Index for ASCII needles.
func indexFold(text, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(text); i++ {
		if strings.EqualFold(text[i:i+n], needle) {
			return i
		}
	}
	return -1
}
