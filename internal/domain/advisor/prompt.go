package advisor

import (
	"strings"

	"github.com/yanqian/ai-stockassistant/internal/infra/llm/gemini"
)

const defaultInstructions = `You are a professional stock analyst and financial AI assistant.

Your job is to provide:
• Highly relevant, concise, and actionable stock-related answers
• 3 to 5 bullet points only
• Avoid all filler content or general advice
• No greetings, disclaimers, or explanations unless critical
• Use key numbers (like stock price, revenue, P/E, EPS) when helpful
• If the question is not stock-related, redirect the user to ask about stocks
• Do not use asterisks
• Give a confidence percentage when asked what to buy or sell`

const blockMediumAndAbove = "BLOCK_MEDIUM_AND_ABOVE"

var safetyCategories = []string{
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_HARASSMENT",
}

// RequestBuilder wraps user queries in the fixed instruction template.
type RequestBuilder struct {
	instructions string
	generation   gemini.GenerationConfig
}

// NewRequestBuilder captures the template and sampling parameters once so
// every query is sent with identical settings.
func NewRequestBuilder(cfg Config) *RequestBuilder {
	instructions := strings.TrimSpace(cfg.Prompt)
	if instructions == "" {
		instructions = defaultInstructions
	}
	cfg = cfg.withDefaults()
	return &RequestBuilder{
		instructions: instructions,
		generation: gemini.GenerationConfig{
			Temperature:     cfg.Temperature,
			TopK:            cfg.TopK,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
}

// Prompt renders the templated text for query.
func (b *RequestBuilder) Prompt(query string) string {
	return b.instructions + "\n\nUser Question: " + query
}

// Build produces the generateContent payload for query.
func (b *RequestBuilder) Build(query string) gemini.GenerateContentRequest {
	safety := make([]gemini.SafetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		safety = append(safety, gemini.SafetySetting{Category: category, Threshold: blockMediumAndAbove})
	}
	return gemini.GenerateContentRequest{
		Contents:         []gemini.Content{gemini.UserText(b.Prompt(query))},
		GenerationConfig: b.generation,
		SafetySettings:   safety,
	}
}
