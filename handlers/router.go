package handlers

import (
	"context"
	"pickplace-backend/services"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// NewApp - 미들웨어와 라우트가 등록된 Fiber 앱 생성
func NewApp(ctx context.Context, corsOrigins string, state *services.RobotState, tasks *services.PickPlaceSequencer) *fiber.App {
	startedAt := time.Now()

	app := fiber.New(fiber.Config{
		AppName: "pickplace-backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	robot := NewRobotHandler(ctx, state, tasks)
	robot.Register(app)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Pick and Place 로봇 시뮬레이터 서버가 실행 중입니다.")
	})

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "OK",
			"clients":    Manager.GetClientCount(),
			"session_id": state.SessionID(),
			"uptime":     int64(time.Since(startedAt).Seconds()),
			"time":       time.Now().Format(time.RFC3339),
		})
	})

	NewLogHandler(state).Register(api)

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/websocket/web", websocket.New(robot.HandleWebSocket))

	return app
}
