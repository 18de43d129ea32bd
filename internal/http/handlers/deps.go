package handlers

import (
	"blossoms/internal/domain"
	"blossoms/internal/services"
)

type Deps struct {
	ProductHandler *ProductHandler
	OrderHandler   *OrderHandler
}

// NewDeps builds the services and handlers over the given storage gateway
// and image store.
func NewDeps(products domain.ProductRepository, orders domain.OrderRepository, images domain.ImageStore) *Deps {
	productSvc := services.NewProductService(products, images)
	orderSvc := services.NewOrderService(orders)

	return &Deps{
		ProductHandler: &ProductHandler{Products: productSvc},
		OrderHandler:   &OrderHandler{Orders: orderSvc},
	}
}
