package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/support-chat/internal/api/http/handlers"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Page     *handlers.PageHandler
	Chat     *handlers.ChatHandler
	Tickets  *handlers.TicketsHandler
	Sessions *auth.SessionMiddleware
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	app.Get("/", cfg.Sessions.Handle, cfg.Page.Index)

	api := app.Group("/api", cfg.Sessions.Handle)
	api.Post("/chat", cfg.Chat.Chat)
	api.Post("/check-ticket-status", cfg.Chat.CheckTicketStatus)
	api.Post("/connect-expert", cfg.Chat.ConnectExpert)
	api.Post("/feedback", cfg.Chat.Feedback)
	api.Get("/chat-history", cfg.Chat.History)
	api.Get("/suggestions", cfg.Chat.Suggestions)
	api.Post("/typing-suggestions", cfg.Chat.TypingSuggestions)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Delete("/session", cfg.Chat.CloseSession)
}
