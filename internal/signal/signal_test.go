package signal

import (
	"errors"
	"testing"

	"github.com/vqhuy/bracketd/internal/types"
)

func TestParse_EnterJSON(t *testing.T) {
	raw := []byte(`{"action":"enter","direction":"long","instrument":"btcusdt","quantity":"0.5","price":"50000","stopLoss":"49500","takeProfit":"51000"}`)

	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Action != types.ActionEnter {
		t.Errorf("action = %s, want enter", sig.Action)
	}
	if sig.Direction != types.SideLong {
		t.Errorf("direction = %s, want LONG", sig.Direction)
	}
	if sig.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %s, want BTCUSDT", sig.Symbol)
	}
	if sig.Quantity != "0.5" {
		t.Errorf("quantity = %q, want 0.5", sig.Quantity)
	}
	if sig.ID == "" || sig.ReceivedAt.IsZero() {
		t.Error("expected id and timestamp to be set")
	}
}

func TestParse_DirectionSpellings(t *testing.T) {
	tests := []struct {
		dir  string
		want types.Side
	}{
		{"long", types.SideLong},
		{"buy", types.SideLong},
		{"BUY", types.SideLong},
		{"short", types.SideShort},
		{"sell", types.SideShort},
		{" Sell ", types.SideShort},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			sig, err := Parse([]byte(`{"action":"enter","direction":"` + tt.dir + `","instrument":"BTCUSDT","quantity":"1"}`))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if sig.Direction != tt.want {
				t.Errorf("direction = %s, want %s", sig.Direction, tt.want)
			}
		})
	}
}

func TestParse_UnknownDirectionRejected(t *testing.T) {
	_, err := Parse([]byte(`{"action":"enter","direction":"sideways","instrument":"BTCUSDT","quantity":"1"}`))
	if !errors.Is(err, types.ErrInvalidDirection) {
		t.Fatalf("err = %v, want ErrInvalidDirection", err)
	}
}

func TestParse_MissingActionDefaultsToNotify(t *testing.T) {
	sig, err := Parse([]byte(`{"instrument":"BTCUSDT","price":"50000"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Action != types.ActionNotify {
		t.Errorf("action = %s, want message", sig.Action)
	}
}

func TestParse_EnterRequiresDirection(t *testing.T) {
	_, err := Parse([]byte(`{"action":"enter","instrument":"BTCUSDT","quantity":"1"}`))
	if !errors.Is(err, types.ErrMissingDirection) {
		t.Fatalf("err = %v, want ErrMissingDirection", err)
	}
}

func TestParse_EnterRequiresInstrument(t *testing.T) {
	_, err := Parse([]byte(`{"action":"enter","direction":"long","quantity":"1"}`))
	if !errors.Is(err, types.ErrMissingInstrument) {
		t.Fatalf("err = %v, want ErrMissingInstrument", err)
	}
}

func TestParse_Close(t *testing.T) {
	sig, err := Parse([]byte(`{"action":"close","instrument":"ETHUSDT"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Action != types.ActionClose {
		t.Errorf("action = %s, want close", sig.Action)
	}
	// Close signals do not need a direction; the venue position decides.
	if sig.Direction != types.SideFlat {
		t.Errorf("direction = %s, want FLAT", sig.Direction)
	}
}

func TestParse_LegacyTextForm(t *testing.T) {
	raw := []byte("signal: BUY, ticker: BTCUSDT, price: 50000, qty: 0.5, sl: 49500, tp: 51000")

	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Action != types.ActionNotify {
		t.Errorf("action = %s, want message (text form has no action)", sig.Action)
	}
	if sig.Direction != types.SideLong {
		t.Errorf("direction = %s, want LONG", sig.Direction)
	}
	if sig.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %s", sig.Symbol)
	}
	if sig.StopLoss != "49500" || sig.TakeProfit != "51000" {
		t.Errorf("sl/tp = %q/%q", sig.StopLoss, sig.TakeProfit)
	}
}

func TestParse_TextFormWithAction(t *testing.T) {
	sig, err := Parse([]byte("action: enter, signal: sell, ticker: ethusdt, qty: 2"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Action != types.ActionEnter {
		t.Errorf("action = %s, want enter", sig.Action)
	}
	if sig.Direction != types.SideShort {
		t.Errorf("direction = %s, want SHORT", sig.Direction)
	}
	if sig.Symbol != "ETHUSDT" {
		t.Errorf("symbol = %s, want ETHUSDT", sig.Symbol)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"action":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParse_UnstructuredTextIsNotify(t *testing.T) {
	sig, err := Parse([]byte("just some alert text"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Action != types.ActionNotify {
		t.Errorf("action = %s, want message", sig.Action)
	}
	if sig.Raw != "just some alert text" {
		t.Errorf("raw = %q", sig.Raw)
	}
}
