package handlers

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"

	"blossoms/internal/config"
	applog "blossoms/internal/log"
)

func init() {
	// Prices and totals go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// NewApp wires middleware and routes. accessLog receives one line per
// request; /media is served only for local image storage.
func NewApp(d *Deps, cfg config.Config, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "blossoms",
		ErrorHandler: ErrorHandler,
		BodyLimit:    cfg.BodyLimit,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
		Output: accessLog,
	}))
	app.Use(helmet.New(helmet.Config{
		// Images under /media are embedded by the storefront on another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: len(cfg.CORSOrigins) > 0 && !slices.Contains(cfg.CORSOrigins, "*"),
	}))

	// ---------- Static media ----------
	if cfg.StorageDriver == config.StorageLocal && cfg.MediaDir != "" {
		app.Get("/media/*", Media(cfg.MediaDir))
	}

	// ---------- API ----------
	api := app.Group("/api")
	if cfg.WriteRateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.WriteRateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				switch c.Method() {
				case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
					return true
				}
				return false
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.write.hit", nil)
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, retry soon")
			},
		}))
	}

	products := api.Group("/products")
	products.Post("/", d.ProductHandler.Create)
	products.Get("/", d.ProductHandler.List)
	products.Get("/low-stock", d.ProductHandler.LowStock)
	products.Get("/:id", d.ProductHandler.Get)
	products.Put("/:id", d.ProductHandler.Update)
	products.Delete("/:id", d.ProductHandler.Delete)

	orders := api.Group("/orders")
	orders.Post("/", d.OrderHandler.Create)
	orders.Get("/:id", d.OrderHandler.Get)
	orders.Put("/:id/status", d.OrderHandler.UpdateStatus)

	// Health & 404
	app.Get("/health", Health)
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	return app
}
