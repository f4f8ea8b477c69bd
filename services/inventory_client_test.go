package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/order-saga-service/pkg/apperrors"
)

func TestInventoryClientCheckStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/inventory/check", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Internal-Token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"all_available": false,
			"items": [
				{"product_id": "p1", "requested_quantity": 2, "available_stock": 5, "available": true},
				{"product_id": "p2", "requested_quantity": 3, "available_stock": 1, "available": false}
			]
		}`))
	}))
	defer server.Close()

	client := NewInventoryClient(server.URL, "secret")
	resp, err := client.CheckStock(context.Background(), []ReserveItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	})
	require.NoError(t, err)
	assert.False(t, resp.AllAvailable)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[1].AvailableStock)
}

// An insufficient-stock rejection is a business conflict, not a gateway
// failure; the decoded kind and details survive the hop.
func TestInventoryClientReserveConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": {"kind": "conflict", "message": "insufficient stock", "details": [{"product_id": "p1", "requested_quantity": 2, "available_stock": 1, "available": false}]}}`))
	}))
	defer server.Close()

	client := NewInventoryClient(server.URL, "secret")
	err := client.Reserve(context.Background(), "order-1", "cust-1", []ReserveItem{{ProductID: "p1", Quantity: 2}}, 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Contains(t, err.Error(), "insufficient stock")
	assert.NotNil(t, apperrors.From(err).Details)
}

func TestInventoryClientReserveRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"kind": "persistence", "message": "ledger write failed"}}`))
	}))
	defer server.Close()

	client := NewInventoryClient(server.URL, "secret")
	err := client.Reserve(context.Background(), "order-1", "cust-1", []ReserveItem{{ProductID: "p1", Quantity: 1}}, 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstreamRejected))
	assert.Contains(t, err.Error(), "ledger write failed")
}

func TestInventoryClientStringErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "item quantity must be positive"}`))
	}))
	defer server.Close()

	client := NewInventoryClient(server.URL, "secret")
	err := client.Reserve(context.Background(), "order-1", "cust-1", nil, 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstreamRejected))
	assert.Contains(t, err.Error(), "item quantity must be positive")
}

func TestInventoryClientUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	client := NewInventoryClient(server.URL, "secret")
	err := client.Release(context.Background(), "order-1", "cleanup")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstreamUnavailable))
}

func TestCustomerClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "user not found"}`))
	}))
	defer server.Close()

	client := NewCustomerClient(server.URL, "secret")
	_, err := client.GetCustomer(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCustomerClientGetAddresses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/internal/cust-1/addresses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"address_id": "addr-1", "line1": "1 Main St", "city": "Springfield", "state": "IL", "postal_code": "62701", "country": "US"}]`))
	}))
	defer server.Close()

	client := NewCustomerClient(server.URL, "secret")
	addresses, err := client.GetAddresses(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, "addr-1", addresses[0].AddressID)
}
