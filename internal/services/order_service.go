package services

import (
	"context"
	"fmt"
	"time"

	"blossoms/internal/domain"
	"blossoms/internal/validate"
)

type OrderService struct {
	Orders domain.OrderRepository
	Now    func() time.Time
}

func NewOrderService(orders domain.OrderRepository) *OrderService {
	return &OrderService{Orders: orders, Now: time.Now}
}

// Create stores o. Orders without a shipping status start as Processing.
func (s *OrderService) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	const op = "OrderService.Create"
	if o.PrimaryInfo.ShippingStatus == "" {
		o.PrimaryInfo.ShippingStatus = domain.ShippingProcessing
	} else if status, ok := validate.Status(o.PrimaryInfo.ShippingStatus); ok {
		o.PrimaryInfo.ShippingStatus = status
	} else {
		return domain.Order{}, fmt.Errorf("%s: %w: shippingStatus", op, domain.ErrValidation)
	}
	if d := o.PrimaryInfo.EstimatedDeliveryDate; d != nil {
		t := d.UTC().Truncate(time.Millisecond)
		o.PrimaryInfo.EstimatedDeliveryDate = &t
	}
	o.CreatedAt = s.Now().UTC().Truncate(time.Millisecond)

	created, err := s.Orders.Insert(ctx, o)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	const op = "OrderService.Get"
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// UpdateShippingStatus sets the status by hand. It does not coordinate with
// ReconcileDeliveries; whichever write lands last wins.
func (s *OrderService) UpdateShippingStatus(ctx context.Context, id, status string) (domain.Order, error) {
	const op = "OrderService.UpdateShippingStatus"
	status, ok := validate.Status(status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%s: %w: shippingStatus", op, domain.ErrValidation)
	}
	o, err := s.Orders.UpdateShippingStatus(ctx, id, status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}
