package domain

import (
	"context"
	"io"
	"time"
)

// ProductRepository is the Products collection of the Storage Gateway.
type ProductRepository interface {
	Insert(ctx context.Context, p Product) (Product, error)
	List(ctx context.Context, search string) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	// Update replaces the editable fields of id with those of p. ImageURL is
	// written only when setImage is true.
	Update(ctx context.Context, id string, p Product, setImage bool) (Product, error)
	Delete(ctx context.Context, id string) error
	ListMaxQuantity(ctx context.Context, max int) ([]Product, error)
}

// OrderRepository is the Orders collection of the Storage Gateway.
type OrderRepository interface {
	Insert(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	UpdateShippingStatus(ctx context.Context, id, status string) (Order, error)
	// MarkDelivered sets every order with an estimated delivery date before
	// now and a status other than ShippingDelivered to ShippingDelivered and
	// returns how many orders changed.
	MarkDelivered(ctx context.Context, now time.Time) (int64, error)
}

// ImageStore is the Object Store Adapter: it persists a payload under key and
// returns a publicly resolvable URL for it.
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
