package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/client/backend"
)

func newClient(t *testing.T, handler http.Handler, options ...backend.ClientOption) (*backend.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	httpClient := backend.NewHTTPClient(srv.URL, zap.NewNop(), options...)
	return backend.NewClient(httpClient, zap.NewNop()), srv
}

func fastRetries() *backend.RetryConfig {
	cfg := backend.DefaultRetryConfig()
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 5 * time.Millisecond
	return cfg
}

func TestClient_ListProducts(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/companies/c1/products", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		// Monetary fields arrive as numbers or strings depending on the
		// backend version; both must decode.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "p-1", "name": "Hosting", "cost": 10.5, "ddvPercentage": 22},
			{"id": "p-2", "name": "Domain", "cost": "5.00", "ddvPercentage": "9.5"}
		]`))
	}))

	products, err := client.ListProducts(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Cost.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, products[1].Cost.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, products[1].DDVPercentage.Equal(decimal.RequireFromString("9.5")))
}

func TestClient_CreateProduct(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/companies/c1/products", r.URL.Path)

		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "New Service", params["name"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "p-9", "name": "New Service", "cost": "50"}`))
	}))

	product, err := client.CreateProduct(context.Background(), "c1", backend.ProductParams{
		Name: "New Service",
		Cost: decimal.RequireFromString("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "p-9", product.ID)
}

func TestClient_SearchRegistry_QueryParam(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/search/cebelca", r.URL.Path)
		assert.Equal(t, "acme & co", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name": "Acme d.o.o.", "taxNumber": "SI12345678"}]`))
	}))

	entries, err := client.SearchRegistry(context.Background(), "acme & co")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme d.o.o.", entries[0].Name)
	assert.Equal(t, "SI12345678", entries[0].TaxNumber)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}), backend.WithRetryConfig(fastRetries()))

	_, err := client.ListInvoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "invalid invoice"}`))
	}), backend.WithRetryConfig(fastRetries()))

	_, err := client.CreateInvoice(context.Background(), backend.InvoiceCreateParams{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a 422 is not retryable")

	var httpErr *backend.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "invalid invoice")
}

func TestClient_UpdateInvoice_PartialPayload(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/invoices/inv-7", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "26-0002", payload["invoice_number"])
		// Absent pointer fields must not appear in the payload at all.
		assert.NotContains(t, payload, "company_id")
		assert.NotContains(t, payload, "notes")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "inv-7", "invoice_number": "26-0002"}`))
	}))

	number := "26-0002"
	invoice, err := client.UpdateInvoice(context.Background(), "inv-7", backend.InvoiceUpdateParams{
		InvoiceNumber: &number,
	})
	require.NoError(t, err)
	assert.Equal(t, "26-0002", invoice.InvoiceNumber)
}

func TestHTTPError_Message(t *testing.T) {
	err := &backend.HTTPError{
		StatusCode: 404,
		Status:     "404 Not Found",
		URL:        "http://backend/invoices/x",
		Method:     http.MethodGet,
		Body:       `{"error": "not found"}`,
	}
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "/invoices/x")
}
