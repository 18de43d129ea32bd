package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ShippingProcessing     = "Processing"
	ShippingShipped        = "Shipped"
	ShippingOutForDelivery = "Out for Delivery"
	ShippingDelivered      = "Delivered"
)

// Order is a customer order; only its shipping fields change after creation.
type Order struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	PrimaryInfo   PrimaryInfo     `json:"primaryInfo"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// PrimaryInfo holds the shipping fields the reconciliation job reads and writes.
type PrimaryInfo struct {
	ShippingStatus        string     `json:"shippingStatus"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate"`
}

// Overdue reports whether the order should be marked delivered at now.
func (o Order) Overdue(now time.Time) bool {
	d := o.PrimaryInfo.EstimatedDeliveryDate
	return o.PrimaryInfo.ShippingStatus != ShippingDelivered && d != nil && d.Before(now)
}
