package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("catalog.local", discardLogger()); err == nil {
		t.Fatal("expected relative url to be rejected")
	}
	if _, err := NewHTTPClient("http://catalog.local", discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/plans/plan-21/price" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Fatalf("unexpected accept header %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":"149.90","currency":"EUR"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	price, err := client.Price(context.Background(), "plan-21")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Amount.Equal(decimal.RequireFromString("149.90")) || price.Currency != "EUR" {
		t.Fatalf("unexpected price %s %s", price.Amount, price.Currency)
	}
}

func TestClientPriceUnknownPlan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	if _, err := client.Price(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientPriceMalformedAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":"a lot","currency":"EUR"}`))
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	if _, err := client.Price(context.Background(), "plan-1"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestClientPriceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	_, err := client.Price(context.Background(), "plan-1")
	if err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected generic catalog error, got %v", err)
	}
}

func TestClientAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/plans/plan-21/asset" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://files.test/signed/plan-21","filename":"plan-21.zip","expires_at":"2025-06-01T12:00:00Z"}`))
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	asset, err := client.Asset(context.Background(), "plan-21")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.URL != "https://files.test/signed/plan-21" || asset.Filename != "plan-21.zip" {
		t.Fatalf("unexpected asset %+v", asset)
	}
	if asset.ExpiresAt.IsZero() {
		t.Fatal("expected expiration to be parsed")
	}
}

func TestClientAssetUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, discardLogger())
	if _, err := client.Asset(context.Background(), "plan-1"); err == nil {
		t.Fatal("expected error for unavailable catalog")
	}
}
