package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "blossoms/internal/log"
)

// Media serves uploaded images from dir. Traversal attempts, raw or
// encoded, get a plain 404.
func Media(dir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return fiber.ErrNotFound
		}
		clean := filepath.Clean(filepath.FromSlash(path))
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return fiber.ErrNotFound
		}
		if err := c.SendFile(filepath.Join(dir, clean), true); err != nil {
			return fiber.ErrNotFound
		}
		return nil
	}
}
