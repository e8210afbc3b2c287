package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	replyStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(80)

	rejectedStyle = replyStyle.
		BorderForeground(lipgloss.Color("#F59E0B"))

	failedStyle = replyStyle.
		BorderForeground(lipgloss.Color("#EF4444"))

	metaStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

func renderAnswer(resp advisor.Response) string {
	box := replyStyle
	switch resp.Outcome {
	case advisor.StageRejected:
		box = rejectedStyle
	case advisor.StageFailed:
		box = failedStyle
	}

	meta := []string{
		"source " + string(resp.Source),
		"outcome " + string(resp.Outcome),
		fmt.Sprintf("%dms", resp.DurationMs),
	}
	if resp.ErrorKind != "" {
		meta = append(meta, "error "+string(resp.ErrorKind))
	}
	if usage := resp.TokenUsage; usage != nil {
		label := fmt.Sprintf("%d tokens", usage.TotalTokens)
		if usage.Estimated {
			label += " (est.)"
		}
		meta = append(meta, label)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Q: "+resp.Query),
		box.Render(resp.Reply),
		metaStyle.Render(strings.Join(meta, " · ")+"  conversation "+resp.ConversationID),
	)
}

func renderToken(subject, token string, expiresAt time.Time) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Bearer token for "+subject),
		token,
		metaStyle.Render("expires "+expiresAt.UTC().Format(time.RFC3339)),
	)
}

func renderError(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}
