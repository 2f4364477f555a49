package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/web"
)

// PageHandler serves the chat page.
type PageHandler struct {
	renderer web.Renderer
	title    string
}

// NewPageHandler constructs handler.
func NewPageHandler(renderer web.Renderer, title string) *PageHandler {
	return &PageHandler{renderer: renderer, title: title}
}

// Index GET /.
func (h *PageHandler) Index(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, "index.html", fiber.Map{"Title": h.title}); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
