package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/quickmoney/chat-service/internal/config"
	"github.com/quickmoney/chat-service/internal/metrics"
	"github.com/quickmoney/chat-service/internal/presence"
	"github.com/quickmoney/chat-service/internal/service"
	"github.com/quickmoney/chat-service/internal/ws"
)

// NewServer wires the fiber app: REST gateway under /api/chat, the
// websocket upgrade on /ws, health and metrics.
func NewServer(cfg *config.Config, svc *service.ChatService, wsrv *ws.Server, pres *presence.Store, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if len(cfg.CORS.AllowOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORS.AllowOrigins, ","),
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Authorization",
			AllowCredentials: true,
		}))
	}

	h := NewHandlers(svc, pres, log, cfg.App.Production())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsrv.Handler()))

	chat := app.Group("/api/chat")
	chat.Post("/send", h.Send)
	chat.Get("/history/:user1/:user2", h.History)
	chat.Get("/conversations/:userId", h.Conversations)
	chat.Post("/system", h.SystemNotify)
	chat.Get("/presence/:userId", h.Presence)

	return app
}
