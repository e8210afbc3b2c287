package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
)

const places = 2

var hundred = decimal.NewFromInt(100)

// Service values portfolios from caller-supplied quotes.
type Service interface {
	Value(ctx context.Context, req ValuationRequest) (Valuation, error)
}

type service struct {
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(logger *slog.Logger) Service {
	return &service{logger: logger.With("component", "portfolio.service")}
}

func (s *service) Value(_ context.Context, req ValuationRequest) (Valuation, error) {
	holdings, err := normalizeHoldings(req.Holdings)
	if err != nil {
		return Valuation{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid holdings", err)
	}
	if req.Cash.IsNegative() {
		return Valuation{}, apperrors.Wrap(apperrors.CodeInvalidInput, "cash cannot be negative", nil)
	}

	totalValue := decimal.Zero
	totalChange := decimal.Zero
	values := make([]decimal.Decimal, len(holdings))
	changes := make([]decimal.Decimal, len(holdings))
	for i, h := range holdings {
		values[i] = h.Shares.Mul(h.Price)
		if !h.PreviousClose.IsZero() {
			changes[i] = h.Shares.Mul(h.Price.Sub(h.PreviousClose))
		}
		totalValue = totalValue.Add(values[i])
		totalChange = totalChange.Add(changes[i])
	}

	positions := make([]Position, len(holdings))
	for i, h := range holdings {
		positions[i] = Position{
			Symbol:           h.Symbol,
			Name:             h.Name,
			Shares:           h.Shares,
			Price:            h.Price,
			MarketValue:      values[i].Round(places),
			DayChange:        changes[i].Round(places),
			DayChangePercent: percentOf(changes[i], values[i].Sub(changes[i])),
			Weight:           percentOf(values[i], totalValue),
		}
	}

	valuation := Valuation{
		Positions:        positions,
		HoldingsValue:    totalValue.Round(places),
		DayChange:        totalChange.Round(places),
		DayChangePercent: percentOf(totalChange, totalValue.Sub(totalChange)),
		Cash:             req.Cash.Round(places),
		NetWorth:         totalValue.Add(req.Cash).Round(places),
	}
	s.logger.Debug("portfolio valued", "positions", len(positions), "net_worth", valuation.NetWorth.String())
	return valuation, nil
}

func normalizeHoldings(in []Holding) ([]Holding, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]Holding, 0, len(in))
	for i, h := range in {
		h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
		h.Name = strings.TrimSpace(h.Name)
		switch {
		case h.Symbol == "":
			return nil, fmt.Errorf("holding %d: symbol cannot be empty", i)
		case h.Shares.IsNegative():
			return nil, fmt.Errorf("holding %s: shares cannot be negative", h.Symbol)
		case h.Price.IsNegative():
			return nil, fmt.Errorf("holding %s: price cannot be negative", h.Symbol)
		case h.PreviousClose.IsNegative():
			return nil, fmt.Errorf("holding %s: previous close cannot be negative", h.Symbol)
		}
		if _, dup := seen[h.Symbol]; dup {
			return nil, fmt.Errorf("holding %s: duplicate symbol", h.Symbol)
		}
		seen[h.Symbol] = struct{}{}
		out = append(out, h)
	}
	return out, nil
}

// percentOf returns part/whole*100 rounded, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(places)
}
