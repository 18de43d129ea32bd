package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderJSON struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	Total         float64 `json:"total"`
	PrimaryInfo   struct {
		ShippingStatus        string     `json:"shippingStatus"`
		EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate"`
	} `json:"primaryInfo"`
}

func TestOrderLifecycle(t *testing.T) {
	a := newTestApp(t)
	eta := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	resp, body := a.json(t, http.MethodPost, "/api/orders", map[string]any{
		"customerName":  "Grace",
		"customerEmail": "grace@example.com",
		"total":         "212.40",
		"primaryInfo":   map[string]any{"estimatedDeliveryDate": eta.Format(time.RFC3339)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	o := decode[orderJSON](t, body)
	require.NotEmpty(t, o.ID)
	assert.Equal(t, "Processing", o.PrimaryInfo.ShippingStatus)
	assert.InDelta(t, 212.4, o.Total, 1e-9)
	require.NotNil(t, o.PrimaryInfo.EstimatedDeliveryDate)
	assert.True(t, eta.Equal(*o.PrimaryInfo.EstimatedDeliveryDate))

	resp, got := a.json(t, http.MethodGet, "/api/orders/"+o.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, string(body), string(got))

	resp, body = a.json(t, http.MethodPut, "/api/orders/"+o.ID+"/status", map[string]any{"shippingStatus": "Out for Delivery"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Out for Delivery", decode[orderJSON](t, body).PrimaryInfo.ShippingStatus)
}

func TestOrderStatusErrors(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.json(t, http.MethodPost, "/api/orders", map[string]any{"customerName": "Grace", "total": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	o := decode[orderJSON](t, body)

	resp, body = a.json(t, http.MethodPut, "/api/orders/"+o.ID+"/status", map[string]any{"shippingStatus": "  "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errorResponse{Error: "validation_error", Message: "Invalid order data"}, decode[errorResponse](t, body))

	resp, body = a.json(t, http.MethodPut, "/api/orders/nope/status", map[string]any{"shippingStatus": "Shipped"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errorResponse{Error: "not_found", Message: "Order not found"}, decode[errorResponse](t, body))

	resp, _ = a.json(t, http.MethodGet, "/api/orders/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrderCreateRejectsBadFields(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.json(t, http.MethodPost, "/api/orders", map[string]any{"total": "a lot"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decode[errorResponse](t, body).Error)

	resp, _ = a.json(t, http.MethodPost, "/api/orders", map[string]any{
		"primaryInfo": map[string]any{"estimatedDeliveryDate": "soon"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
