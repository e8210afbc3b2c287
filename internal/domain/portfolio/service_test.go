package portfolio

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/ai-stockassistant/pkg/errors"
	"github.com/yanqian/ai-stockassistant/pkg/logger"
)

func TestValueComputesTotals(t *testing.T) {
	svc := NewService(logger.Discard())

	got, err := svc.Value(context.Background(), ValuationRequest{
		Holdings: []Holding{
			{Symbol: " aapl ", Name: "Apple Inc.", Shares: dec("10"), Price: dec("185.92"), PreviousClose: dec("184.00")},
			{Symbol: "MSFT", Name: "Microsoft Corp.", Shares: dec("5"), Price: dec("420.45"), PreviousClose: dec("421.67")},
			{Symbol: "AMZN", Name: "Amazon.com Inc.", Shares: dec("8"), Price: dec("183.50"), PreviousClose: dec("180.00")},
		},
		Cash: dec("1256.34"),
	})
	require.NoError(t, err)

	require.Equal(t, "5429.45", got.HoldingsValue.StringFixed(2))
	require.Equal(t, "41.10", got.DayChange.StringFixed(2))
	require.Equal(t, "0.76", got.DayChangePercent.StringFixed(2))
	require.Equal(t, "1256.34", got.Cash.StringFixed(2))
	require.Equal(t, "6685.79", got.NetWorth.StringFixed(2))

	require.Len(t, got.Positions, 3)
	want := []struct {
		symbol, value, change, pct, weight string
	}{
		{"AAPL", "1859.20", "19.20", "1.04", "34.24"},
		{"MSFT", "2102.25", "-6.10", "-0.29", "38.72"},
		{"AMZN", "1468.00", "28.00", "1.94", "27.04"},
	}
	for i, w := range want {
		p := got.Positions[i]
		require.Equal(t, w.symbol, p.Symbol)
		require.Equal(t, w.value, p.MarketValue.StringFixed(2), w.symbol)
		require.Equal(t, w.change, p.DayChange.StringFixed(2), w.symbol)
		require.Equal(t, w.pct, p.DayChangePercent.StringFixed(2), w.symbol)
		require.Equal(t, w.weight, p.Weight.StringFixed(2), w.symbol)
	}
}

func TestValueHandlesZeroes(t *testing.T) {
	svc := NewService(logger.Discard())

	got, err := svc.Value(context.Background(), ValuationRequest{Cash: dec("100")})
	require.NoError(t, err)
	require.Empty(t, got.Positions)
	require.True(t, got.HoldingsValue.IsZero())
	require.True(t, got.DayChangePercent.IsZero())
	require.Equal(t, "100.00", got.NetWorth.StringFixed(2))

	got, err = svc.Value(context.Background(), ValuationRequest{
		Holdings: []Holding{{Symbol: "NVDA", Shares: dec("2"), Price: dec("120")}},
	})
	require.NoError(t, err)
	require.True(t, got.Positions[0].DayChange.IsZero())
	require.True(t, got.Positions[0].DayChangePercent.IsZero())
	require.Equal(t, "100.00", got.Positions[0].Weight.StringFixed(2))
}

func TestValueRejectsInvalidHoldings(t *testing.T) {
	svc := NewService(logger.Discard())
	cases := map[string]ValuationRequest{
		"empty symbol":    {Holdings: []Holding{{Symbol: " ", Shares: dec("1"), Price: dec("1")}}},
		"negative shares": {Holdings: []Holding{{Symbol: "KO", Shares: dec("-1"), Price: dec("1")}}},
		"negative price":  {Holdings: []Holding{{Symbol: "KO", Shares: dec("1"), Price: dec("-1")}}},
		"duplicate":       {Holdings: []Holding{{Symbol: "ko", Shares: dec("1")}, {Symbol: "KO", Shares: dec("2")}}},
		"negative cash":   {Cash: dec("-5")},
	}
	for name, req := range cases {
		_, err := svc.Value(context.Background(), req)
		require.Error(t, err, name)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), name)
	}
}

func TestValuationRequestAcceptsJSONNumbers(t *testing.T) {
	var req ValuationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"holdings":[{"symbol":"V","shares":3,"price":"275.10","previousClose":270}],"cash":50.5}`), &req))
	require.Equal(t, "275.10", req.Holdings[0].Price.StringFixed(2))
	require.Equal(t, "50.50", req.Cash.StringFixed(2))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
