package portfolio

import "github.com/shopspring/decimal"

// Holding is one caller-supplied position with its latest quote.
type Holding struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Shares        decimal.Decimal `json:"shares"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previousClose"`
}

// ValuationRequest captures the valuation payload.
type ValuationRequest struct {
	Holdings []Holding       `json:"holdings"`
	Cash     decimal.Decimal `json:"cash"`
}

// Position is a valued holding.
type Position struct {
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name,omitempty"`
	Shares           decimal.Decimal `json:"shares"`
	Price            decimal.Decimal `json:"price"`
	MarketValue      decimal.Decimal `json:"marketValue"`
	DayChange        decimal.Decimal `json:"dayChange"`
	DayChangePercent decimal.Decimal `json:"dayChangePercent"`
	Weight           decimal.Decimal `json:"weight"`
}

// Valuation is the portfolio summary shown on the portfolio screen.
type Valuation struct {
	Positions        []Position      `json:"positions"`
	HoldingsValue    decimal.Decimal `json:"holdingsValue"`
	DayChange        decimal.Decimal `json:"dayChange"`
	DayChangePercent decimal.Decimal `json:"dayChangePercent"`
	Cash             decimal.Decimal `json:"cash"`
	NetWorth         decimal.Decimal `json:"netWorth"`
}
