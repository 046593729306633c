package binance

import (
	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// apiError is the venue's error envelope.
type apiError struct {
	Code int64  `json:"code"`
	Msg  string `json:"msg"`
}

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

type leverageResponse struct {
	Symbol   string `json:"symbol"`
	Leverage int    `json:"leverage"`
}

// orderResponse is the venue's order acknowledgement. Numeric fields arrive
// as strings and may legitimately be "0" for market orders whose execution
// report lags the acknowledgement.
type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	AvgPrice      string `json:"avgPrice"`
	ExecutedQty   string `json:"executedQty"`
	CumQuote      string `json:"cumQuote"`
	StopPrice     string `json:"stopPrice"`
}

func (r orderResponse) toAck() *venue.OrderAck {
	return &venue.OrderAck{
		OrderID:       r.OrderID,
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Side:          types.OrderSide(r.Side),
		Type:          r.Type,
		Status:        r.Status,
		AvgPrice:      dec(r.AvgPrice),
		ExecutedQty:   dec(r.ExecutedQty),
		CumQuote:      dec(r.CumQuote),
	}
}

// positionRisk is one row of the venue's position report. PositionAmt is
// signed: positive long, negative short.
type positionRisk struct {
	Symbol      string `json:"symbol"`
	PositionAmt string `json:"positionAmt"`
	EntryPrice  string `json:"entryPrice"`
	Leverage    string `json:"leverage"`
}

// dec parses a venue decimal string, treating absent values as zero.
func dec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
