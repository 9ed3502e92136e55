package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/sink"
)

func TestWebhook_ImplementsSink(t *testing.T) {
	var _ sink.Sink = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w := New("http://example.com/hook", nil, core.RegionEurope)
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}
}

func TestWebhook_Publish(t *testing.T) {
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, nil, core.RegionAsia)

	trades := []core.Trade{
		{ItemID: "T4_BAG", BuyFromCity: core.CityMartlock, SellToCity: core.CityCaerleon, Profit: 92},
		{ItemID: "T5_BAG", BuyFromCity: core.CityLymhurst, SellToCity: core.CityBlackMarket, Profit: 400},
	}

	if err := w.Publish(context.Background(), trades); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedPayload["type"] != "trades" {
		t.Errorf("expected type trades, got %v", receivedPayload["type"])
	}
	if receivedPayload["region"] != "asia" {
		t.Errorf("expected region asia, got %v", receivedPayload["region"])
	}
	if receivedPayload["count"].(float64) != 2 {
		t.Errorf("expected count 2, got %v", receivedPayload["count"])
	}
	items, ok := receivedPayload["trades"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 trades, got %v", receivedPayload["trades"])
	}
	first := items[0].(map[string]any)
	if first["itemId"] != "T4_BAG" {
		t.Errorf("expected itemId T4_BAG, got %v", first["itemId"])
	}
}

func TestWebhook_Publish_Empty(t *testing.T) {
	w := New("http://127.0.0.1:1/hook", nil, core.RegionEurope)
	if err := w.Publish(context.Background(), nil); err != nil {
		t.Errorf("empty batch should not error: %v", err)
	}
}

func TestWebhook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := New(server.URL, nil, core.RegionEurope)

	err := w.Publish(context.Background(), []core.Trade{{ItemID: "T4_BAG", Profit: 1}})
	if err == nil {
		t.Error("expected error for server error response")
	}
}

func TestWebhook_CustomHeaders(t *testing.T) {
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	headers := map[string]string{
		"Authorization": "Bearer test-token",
		"X-Custom":      "value",
	}
	w := New(server.URL, headers, core.RegionEurope)

	w.Publish(context.Background(), []core.Trade{{ItemID: "T4_BAG", Profit: 1}})

	if receivedHeaders.Get("Authorization") != "Bearer test-token" {
		t.Error("expected Authorization header")
	}
	if receivedHeaders.Get("X-Custom") != "value" {
		t.Error("expected X-Custom header")
	}
	if receivedHeaders.Get("Content-Type") != "application/json" {
		t.Error("expected JSON content type")
	}
}

func TestWebhook_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(server.URL, nil, core.RegionEurope)
	if err := w.Publish(ctx, []core.Trade{{ItemID: "T4_BAG", Profit: 1}}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
