package advisor

import "time"

// Config holds runtime knobs for the advisor service.
type Config struct {
	Prompt          string
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
	CacheTTL        time.Duration
	// MaxQueryLength bounds the query in runes; zero disables the check.
	MaxQueryLength     int
	Greeting           string
	SecondaryThreshold int
	Vocabulary         Vocabulary
	Disclaimers        []string
}

func (c Config) withDefaults() Config {
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	if c.TopK <= 0 {
		c.TopK = 40
	}
	if c.TopP <= 0 {
		c.TopP = 0.8
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 300
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.SecondaryThreshold <= 0 {
		c.SecondaryThreshold = defaultSecondaryThreshold
	}
	if len(c.Disclaimers) == 0 {
		c.Disclaimers = DefaultDisclaimers()
	}
	c.Vocabulary = DefaultVocabulary().Merge(c.Vocabulary)
	return c
}
