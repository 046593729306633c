package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	cfg.APISecret = "test-secret"
	return NewClient(cfg, nil), srv
}

func TestClient_Sign(t *testing.T) {
	// Known vector from the venue API documentation.
	cfg := DefaultConfig()
	cfg.APISecret = "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	c := NewClient(cfg, nil)

	query := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	want := "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"

	if got := c.sign(query); got != want {
		t.Errorf("sign() = %s, want %s", got, want)
	}
}

func TestClient_PlaceMarketOrder(t *testing.T) {
	var gotQuery map[string]string

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/fapi/v1/order" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-MBX-APIKEY") != "test-key" {
			t.Error("missing API key header")
		}

		q := r.URL.Query()
		gotQuery = map[string]string{
			"symbol":     q.Get("symbol"),
			"side":       q.Get("side"),
			"type":       q.Get("type"),
			"quantity":   q.Get("quantity"),
			"reduceOnly": q.Get("reduceOnly"),
		}
		if q.Get("signature") == "" {
			t.Error("request is not signed")
		}
		if q.Get("timestamp") == "" {
			t.Error("request has no timestamp")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"orderId": 28,
			"clientOrderId": "exec-1",
			"symbol": "BTCUSDT",
			"side": "BUY",
			"type": "MARKET",
			"status": "FILLED",
			"avgPrice": "50123.40",
			"executedQty": "0.002",
			"cumQuote": "100.2468"
		}`))
	})

	ack, err := client.PlaceMarketOrder(context.Background(), venue.MarketOrder{
		Symbol:        "BTCUSDT",
		Side:          types.OrderSideBuy,
		Quantity:      decimal.RequireFromString("0.002"),
		ClientOrderID: "exec-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ack.OrderID != 28 {
		t.Errorf("OrderID = %d, want 28", ack.OrderID)
	}
	if !ack.AvgPrice.Equal(decimal.RequireFromString("50123.40")) {
		t.Errorf("AvgPrice = %s, want 50123.40", ack.AvgPrice)
	}
	if !ack.CumQuote.Equal(decimal.RequireFromString("100.2468")) {
		t.Errorf("CumQuote = %s, want 100.2468", ack.CumQuote)
	}

	if gotQuery["symbol"] != "BTCUSDT" || gotQuery["side"] != "BUY" || gotQuery["type"] != "MARKET" {
		t.Errorf("unexpected order params: %v", gotQuery)
	}
	if gotQuery["reduceOnly"] != "" {
		t.Error("reduceOnly should not be set for a plain entry")
	}
}

func TestClient_PlaceStopOrder(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "STOP_MARKET" {
			t.Errorf("type = %s, want STOP_MARKET", q.Get("type"))
		}
		if q.Get("closePosition") != "true" {
			t.Error("closePosition should be true")
		}
		if q.Get("stopPrice") != "49000" {
			t.Errorf("stopPrice = %s, want 49000", q.Get("stopPrice"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderId": 29, "symbol": "BTCUSDT", "type": "STOP_MARKET", "status": "NEW"}`))
	})

	ack, err := client.PlaceStopOrder(context.Background(), venue.StopOrder{
		Symbol:        "BTCUSDT",
		Kind:          types.StopKindStopLoss,
		Side:          types.OrderSideSell,
		TriggerPrice:  decimal.RequireFromString("49000"),
		ClosePosition: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack.OrderID != 29 {
		t.Errorf("OrderID = %d, want 29", ack.OrderID)
	}
}

func TestClient_VenueErrorDecoded(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": -2019, "msg": "Margin is insufficient."}`))
	})

	_, err := client.PlaceMarketOrder(context.Background(), venue.MarketOrder{
		Symbol:   "BTCUSDT",
		Side:     types.OrderSideBuy,
		Quantity: decimal.RequireFromString("1"),
	})
	if err == nil {
		t.Fatal("expected error")
	}

	ve, ok := types.AsVenueError(err)
	if !ok {
		t.Fatalf("expected VenueError, got %T: %v", err, err)
	}
	if ve.Code != -2019 {
		t.Errorf("Code = %d, want -2019", ve.Code)
	}
	if ve.Message != "Margin is insufficient." {
		t.Errorf("Message = %q", ve.Message)
	}
}

func TestClient_CancelOrder_AlreadyGone(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": -2011, "msg": "Unknown order sent."}`))
	})

	outcome, err := client.CancelOrder(context.Background(), "BTCUSDT", 42)
	if err != nil {
		t.Fatalf("already-gone cancel should not be an error, got: %v", err)
	}
	if outcome != types.AlreadyGone {
		t.Errorf("outcome = %s, want already_gone", outcome)
	}
}

func TestClient_CancelOrder_OtherFailure(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": -2015, "msg": "Invalid API-key."}`))
	})

	outcome, err := client.CancelOrder(context.Background(), "BTCUSDT", 42)
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome != types.CancelFailed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
}

func TestClient_Position_SignedQuantity(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v2/positionRisk" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol": "BTCUSDT", "positionAmt": "-1.5", "entryPrice": "50000.0", "leverage": "10"}
		]`))
	})

	pos, err := client.Position(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pos.Quantity.Equal(decimal.RequireFromString("-1.5")) {
		t.Errorf("Quantity = %s, want -1.5", pos.Quantity)
	}
	if pos.Side() != types.SideShort {
		t.Errorf("Side = %s, want SHORT", pos.Side())
	}
	if pos.Leverage != 10 {
		t.Errorf("Leverage = %d, want 10", pos.Leverage)
	}
}

func TestClient_Position_FlatWhenAbsent(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	pos, err := client.Position(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pos.IsFlat() {
		t.Errorf("expected flat position, got %s", pos.Quantity)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	client := NewClient(cfg, nil)
	srv.Close() // connection refused from here on

	_, err := client.Time(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !types.IsTransport(err) {
		t.Errorf("expected TransportError, got %T: %v", err, err)
	}
	if client.State() != venue.StateError {
		t.Errorf("state = %s, want error", client.State())
	}
}

func TestClient_ReconnectRestoresState(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	if client.State() != venue.StateDisconnected {
		t.Errorf("initial state = %s, want disconnected", client.State())
	}

	if err := client.Reconnect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.State() != venue.StateConnected {
		t.Errorf("state = %s, want connected", client.State())
	}
}

func TestDec(t *testing.T) {
	if !dec("").IsZero() {
		t.Error("empty string should parse to zero")
	}
	if !dec("garbage").IsZero() {
		t.Error("unparseable string should parse to zero")
	}
	if !dec("123.4").Equal(decimal.RequireFromString("123.4")) {
		t.Error("valid decimal should round-trip")
	}
}
