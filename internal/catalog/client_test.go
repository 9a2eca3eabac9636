package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const saleBody = `{
	"saleId": "S1",
	"name": "Spring Flash",
	"discountPercentage": 20,
	"startTime": "2026-03-01T12:00:00Z",
	"endTime": "2026-03-01T13:00:00Z",
	"priority": 5,
	"productIds": ["P1", "P2"]
}`

func TestListActiveSales_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/flash-sales/active" {
			t.Errorf("path = %s, want /flash-sales/active", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		w.Write([]byte("[" + saleBody + "]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	sales, err := c.ListActiveSales(context.Background())
	if err != nil {
		t.Fatalf("ListActiveSales failed: %v", err)
	}

	if len(sales) != 1 {
		t.Fatalf("len(sales) = %d, want 1", len(sales))
	}
	if sales[0].ID != "S1" {
		t.Errorf("ID = %q, want S1", sales[0].ID)
	}
	if sales[0].DiscountPercentage != 20 {
		t.Errorf("DiscountPercentage = %v, want 20", sales[0].DiscountPercentage)
	}
	if !sales[0].HasProduct("P2") {
		t.Error("sale should cover P2")
	}
}

func TestListActiveSales_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [` + saleBody + `]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	sales, err := c.ListActiveSales(context.Background())
	if err != nil {
		t.Fatalf("ListActiveSales failed: %v", err)
	}
	if len(sales) != 1 || sales[0].ID != "S1" {
		t.Errorf("sales = %+v, want one sale S1", sales)
	}
}

func TestGetSale_BareIDField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/flash-sales/S1" {
			t.Errorf("path = %s, want /flash-sales/S1", r.URL.Path)
		}
		// REST body uses "id" rather than "saleId".
		w.Write([]byte(`{"data": {"id": "S1", "name": "Spring Flash", "discountPercentage": 20}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	sale, err := c.GetSale(context.Background(), "S1")
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if sale.ID != "S1" {
		t.Errorf("ID = %q, want S1", sale.ID)
	}
}

func TestGetSale_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetSale(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.IsRetryable() {
		t.Error("404 should not be retryable")
	}
}

func TestDoWithRetry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRetries(3, time.Millisecond))
	if _, err := c.ListActiveSales(context.Background()); err != nil {
		t.Fatalf("ListActiveSales failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDoWithRetry_GivesUpAfterMax(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRetries(2, time.Millisecond))
	if _, err := c.ListActiveSales(context.Background()); err == nil {
		t.Fatal("expected error after max retries")
	}
	if calls.Load() != 3 { // initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}
