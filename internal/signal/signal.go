// Package signal decodes inbound alert payloads into normalized signals.
// Payloads are validated at this boundary; the execution core never sees a
// malformed signal.
package signal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vqhuy/bracketd/internal/types"
)

// payload is the JSON wire schema of an inbound alert. All fields are
// strings; numeric validation happens downstream where policy lives.
type payload struct {
	Action     string `json:"action"`
	Direction  string `json:"direction"`
	Instrument string `json:"instrument"`
	Quantity   string `json:"quantity"`
	Price      string `json:"price"`
	StopLoss   string `json:"stopLoss"`
	TakeProfit string `json:"takeProfit"`
}

// Parse decodes a raw alert payload into a Signal. JSON objects use the
// schema above; anything else is parsed as the legacy comma-separated
// "key: value" text form. A missing action defaults to notify-only, and an
// enter signal with an unrecognized direction is rejected outright.
func Parse(raw []byte) (types.Signal, error) {
	trimmed := strings.TrimSpace(string(raw))

	var p payload
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(raw, &p); err != nil {
			return types.Signal{}, fmt.Errorf("decode signal: %w", err)
		}
	} else {
		p = parseText(trimmed)
	}

	sig := types.Signal{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now().UTC(),
		Symbol:     strings.ToUpper(strings.TrimSpace(p.Instrument)),
		Quantity:   strings.TrimSpace(p.Quantity),
		Price:      p.Price,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		Raw:        trimmed,
	}

	switch strings.ToLower(strings.TrimSpace(p.Action)) {
	case "enter":
		sig.Action = types.ActionEnter
	case "close":
		sig.Action = types.ActionClose
	case "", "message":
		sig.Action = types.ActionNotify
	default:
		return types.Signal{}, fmt.Errorf("%w: action %q", types.ErrInvalidDirection, p.Action)
	}

	dir, err := parseDirection(p.Direction)
	if err != nil {
		return types.Signal{}, err
	}
	sig.Direction = dir

	if sig.Action == types.ActionNotify {
		return sig, nil
	}

	if sig.Symbol == "" {
		return types.Signal{}, types.ErrMissingInstrument
	}
	if sig.Action == types.ActionEnter && sig.Direction == types.SideFlat {
		return types.Signal{}, types.ErrMissingDirection
	}
	return sig, nil
}

// parseDirection maps the wire direction to a position side. Both the
// long/short and buy/sell spellings are accepted.
func parseDirection(s string) (types.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return types.SideLong, nil
	case "short", "sell":
		return types.SideShort, nil
	case "":
		return types.SideFlat, nil
	default:
		return types.SideFlat, fmt.Errorf("%w: %q", types.ErrInvalidDirection, s)
	}
}

// parseText parses the legacy comma-separated "key: value" alert form, e.g.
// "signal: BUY, ticker: BTCUSDT, qty: 0.5, price: 50000, sl: 49500, tp: 51000".
func parseText(s string) payload {
	var p payload
	for _, item := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(item, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "action":
			p.Action = value
		case "signal", "direction", "side":
			p.Direction = value
		case "ticker", "instrument", "symbol":
			p.Instrument = value
		case "qty", "quantity":
			p.Quantity = value
		case "price":
			p.Price = value
		case "sl", "stoploss":
			p.StopLoss = value
		case "tp", "takeprofit":
			p.TakeProfit = value
		}
	}
	return p
}
