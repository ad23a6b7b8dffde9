package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"priceoracle/internal/pricefeed"
)

type fakeSource struct {
	price decimal.Decimal
	ok    bool
	last  pricefeed.Reading
}

func (f fakeSource) GetPrice(context.Context) (decimal.Decimal, bool) { return f.price, f.ok }
func (f fakeSource) LastReading() (pricefeed.Reading, bool) {
	return f.last, !f.last.ObservedAt.IsZero()
}

func TestWritePrice_OK(t *testing.T) {
	obs := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := fakeSource{
		price: decimal.RequireFromString("0.00214"),
		ok:    true,
		last:  pricefeed.Reading{Value: decimal.RequireFromString("0.00214"), ObservedAt: obs},
	}

	rr := httptest.NewRecorder()
	writePrice(rr, context.Background(), src, "MNTL", "assetmantle", "osmosis")
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp priceResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "MNTL" || resp.CoinID != "assetmantle" || resp.Market != "osmosis" {
		t.Fatalf("unexpected identity fields: %+v", resp)
	}
	if resp.Price != "0.00214" || !resp.ObservedAt.Equal(obs) {
		t.Fatalf("unexpected reading: %+v", resp)
	}
}

func TestWritePrice_Unavailable(t *testing.T) {
	rr := httptest.NewRecorder()
	writePrice(rr, context.Background(), fakeSource{}, "MNTL", "assetmantle", "osmosis")
	if rr.Code != 503 {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
}
