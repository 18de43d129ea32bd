package services

import (
	"context"
	"fmt"
	"time"
)

// ReconcileDeliveries marks every undelivered order whose estimated delivery
// date is before now as delivered and reports how many orders changed.
// Re-running it with the same now changes nothing.
func (s *OrderService) ReconcileDeliveries(ctx context.Context, now time.Time) (int64, error) {
	const op = "OrderService.ReconcileDeliveries"
	n, err := s.Orders.MarkDelivered(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
