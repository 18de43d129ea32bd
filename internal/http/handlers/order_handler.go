package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"blossoms/internal/domain"
	applog "blossoms/internal/log"
	"blossoms/internal/services"
	"blossoms/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// orderFromFields reads an order body. Shipping fields may be nested under
// primaryInfo, as the order is returned, or sent at the top level by forms.
func orderFromFields(f services.Fields) (domain.Order, error) {
	var (
		o   domain.Order
		err error
	)
	if o.CustomerName, err = validate.Text("customerName", f["customerName"]); err != nil {
		return domain.Order{}, err
	}
	if o.CustomerEmail, err = validate.Text("customerEmail", f["customerEmail"]); err != nil {
		return domain.Order{}, err
	}
	if o.Total, err = validate.Decimal("total", f["total"]); err != nil {
		return domain.Order{}, err
	}
	shipping := map[string]any(f)
	if nested, ok := f["primaryInfo"].(map[string]any); ok {
		shipping = nested
	} else if f["primaryInfo"] != nil {
		return domain.Order{}, fmt.Errorf("%w: primaryInfo", domain.ErrValidation)
	}
	if o.PrimaryInfo.ShippingStatus, err = validate.Text("shippingStatus", shipping["shippingStatus"]); err != nil {
		return domain.Order{}, err
	}
	if o.PrimaryInfo.EstimatedDeliveryDate, err = validate.Time("estimatedDeliveryDate", shipping["estimatedDeliveryDate"]); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// POST /api/orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	f, err := fields(c)
	if err != nil {
		return err
	}
	in, err := orderFromFields(f)
	if err != nil {
		return orderFailure("order.create", "Error creating order", err)
	}
	o, err := h.Orders.Create(c.UserContext(), in)
	if err != nil {
		return orderFailure("order.create", "Error creating order", err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "order.create", map[string]any{"order_id": o.ID, "total": o.Total.String()})
	return c.JSON(o)
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.Orders.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return orderFailure("order.get", "Error fetching order", err)
	}
	return c.JSON(o)
}

// PUT /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	f, err := fields(c)
	if err != nil {
		return err
	}
	raw, ok := f["shippingStatus"]
	if !ok {
		raw = f["status"]
	}
	status, err := validate.Text("shippingStatus", raw)
	if err != nil {
		return orderFailure("order.status", "Error updating order status", err)
	}
	o, err := h.Orders.UpdateShippingStatus(c.UserContext(), id, status)
	if err != nil {
		return orderFailure("order.status", "Error updating order status", err)
	}
	applog.Audit(c, "order.status", map[string]any{"order_id": id, "status": o.PrimaryInfo.ShippingStatus})
	return c.JSON(o)
}
