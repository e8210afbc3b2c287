package advisor

// Vocabulary holds the keyword tables the classifier matches against. All
// entries are expected in lowercase.
type Vocabulary struct {
	Symbols        []string
	Companies      []string
	PrimaryTerms   []string
	SecondaryTerms []string
	Phrases        []string
}

// DefaultVocabulary returns the built-in finance keyword tables.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Symbols: []string{
			"aapl", "msft", "amzn", "tsla", "goog", "googl", "meta", "nvda", "jpm", "bac",
			"wmt", "dis", "nflx", "ko", "pep", "mrk", "pfe", "unh", "jnj", "v", "ma",
		},
		Companies: []string{
			"apple", "microsoft", "amazon", "tesla", "google", "alphabet", "meta",
			"facebook", "nvidia", "jpmorgan", "bank of america", "walmart", "disney",
			"netflix", "coca cola", "coke", "pepsi", "pepsico", "merck", "pfizer",
			"unitedhealth", "johnson & johnson", "visa", "mastercard",
		},
		PrimaryTerms: []string{
			"stock", "share", "market", "invest", "trading", "nasdaq", "dow", "s&p", "nyse",
		},
		SecondaryTerms: []string{
			"bull", "bear", "dividend", "portfolio", "etf", "fund", "ticker", "price",
			"equity", "asset", "finance", "earnings", "quarter", "fiscal", "volatility",
			"gain", "loss", "broker", "trade", "securities", "bond", "yield", "interest rate",
			"fed", "recession", "inflation", "economy", "rally", "crash", "correction",
			"analysis", "forecast", "prediction", "chart", "technical", "fundamental",
		},
		Phrases: []string{
			"stock price", "market cap", "price target", "buy or sell", "worth investing",
			"good investment", "stock analysis", "chart pattern", "moving average",
			"earnings report", "quarterly results", "market sentiment", "stock recommendation",
		},
	}
}

// DefaultDisclaimers lists the boilerplate sentences stripped from replies.
func DefaultDisclaimers() []string {
	return []string{
		"please note that",
		"this is not financial advice",
		"this information is not intended",
		"consult with a financial advisor",
		"past performance is not",
		"invest at your own risk",
	}
}

// Merge replaces each default table with the override when it is non-empty.
func (v Vocabulary) Merge(override Vocabulary) Vocabulary {
	out := v
	if len(override.Symbols) > 0 {
		out.Symbols = override.Symbols
	}
	if len(override.Companies) > 0 {
		out.Companies = override.Companies
	}
	if len(override.PrimaryTerms) > 0 {
		out.PrimaryTerms = override.PrimaryTerms
	}
	if len(override.SecondaryTerms) > 0 {
		out.SecondaryTerms = override.SecondaryTerms
	}
	if len(override.Phrases) > 0 {
		out.Phrases = override.Phrases
	}
	return out
}
