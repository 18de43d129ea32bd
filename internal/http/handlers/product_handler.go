package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "blossoms/internal/log"
	"blossoms/internal/services"
)

type ProductHandler struct {
	Products *services.ProductService
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	f, err := fields(c)
	if err != nil {
		return err
	}
	img, done, err := image(c)
	if err != nil {
		return err
	}
	defer done()

	p, err := h.Products.Create(c.UserContext(), f, img)
	if err != nil {
		return productFailure("product.create", "Error creating product", err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "image": p.ImageURL != nil})
	return c.JSON(p)
}

// GET /api/products?search=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Products.List(c.UserContext(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		return productFailure("product.list", "Error fetching products", err)
	}
	return c.JSON(ps)
}

// GET /api/products/low-stock
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	ps, err := h.Products.ListLowStock(c.UserContext())
	if err != nil {
		return productFailure("product.lowstock", "Error fetching low stock products", err)
	}
	return c.JSON(ps)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Products.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return productFailure("product.get", "Error fetching product", err)
	}
	return c.JSON(p)
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	f, err := fields(c)
	if err != nil {
		return err
	}
	img, done, err := image(c)
	if err != nil {
		return err
	}
	defer done()

	p, err := h.Products.Update(c.UserContext(), id, f, img)
	if err != nil {
		return productFailure("product.update", "Error updating product", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id, "image": img != nil, "low_stock": p.IsLowStock()})
	return c.JSON(p)
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Products.Delete(c.UserContext(), id); err != nil {
		return productFailure("product.delete", "Error deleting product", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
