package handlers

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// PageHandler serves the station's HTML pages from the frontend directory.
type PageHandler struct {
	frontendDir string
}

func NewPageHandler(frontendDir string) *PageHandler {
	return &PageHandler{
		frontendDir: frontendDir,
	}
}

// Page returns a handler sending the named file.
func (h *PageHandler) Page(name string) fiber.Handler {
	path := filepath.Join(h.frontendDir, name)
	return func(c *fiber.Ctx) error {
		return c.SendFile(path)
	}
}
