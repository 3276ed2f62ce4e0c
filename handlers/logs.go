package handlers

import (
	"errors"
	"pickplace-backend/services"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogHandler - 로봇 로그 조회 API
type LogHandler struct {
	state *services.RobotState
}

// NewLogHandler - robot_id 기본값은 현재 세션
func NewLogHandler(state *services.RobotState) *LogHandler {
	return &LogHandler{state: state}
}

// Register - /logs 라우트 등록
func (h *LogHandler) Register(router fiber.Router) {
	logsAPI := router.Group("/logs")
	logsAPI.Get("/recent", h.HandleGetRecentLogs)     // 최근 로그
	logsAPI.Get("/range", h.HandleGetLogsByTimeRange) // 시간 범위
	logsAPI.Get("/type", h.HandleGetLogsByEventType)  // 이벤트 타입별
	logsAPI.Get("/stats", h.HandleGetLogStats)        // 통계
}

func (h *LogHandler) robotID(c *fiber.Ctx) string {
	return c.Query("robot_id", h.state.SessionID())
}

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return limit
}

// fetchError - DB 미사용이면 503, 그 외 500
func fetchError(c *fiber.Ctx, err error, msg string) error {
	if errors.Is(err, services.ErrNoDatabase) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Log storage is not configured",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}

// HandleGetRecentLogs - 최근 로그 조회
func (h *LogHandler) HandleGetRecentLogs(c *fiber.Ctx) error {
	logs, err := services.GetRecentLogs(h.robotID(c), queryLimit(c))
	if err != nil {
		return fetchError(c, err, "Failed to fetch logs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// HandleGetLogsByTimeRange - 시간 범위로 로그 조회
func (h *LogHandler) HandleGetLogsByTimeRange(c *fiber.Ctx) error {
	startStr := c.Query("start") // RFC3339 format
	endStr := c.Query("end")     // RFC3339 format

	// 시작 시간 파싱 (기본: 24시간 전)
	start := time.Now().Add(-24 * time.Hour)
	if startStr != "" {
		parsed, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return badRequest(c, "Invalid start time format (use RFC3339)")
		}
		start = parsed
	}

	// 종료 시간 파싱 (기본: 현재 시간)
	end := time.Now()
	if endStr != "" {
		parsed, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return badRequest(c, "Invalid end time format (use RFC3339)")
		}
		end = parsed
	}

	logs, err := services.GetLogsByTimeRange(h.robotID(c), start, end, queryLimit(c))
	if err != nil {
		return fetchError(c, err, "Failed to fetch logs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(logs),
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
		"logs": logs,
	})
}

// HandleGetLogsByEventType - 이벤트 타입별 로그 조회
func (h *LogHandler) HandleGetLogsByEventType(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	if eventType == "" {
		return badRequest(c, "event_type parameter is required")
	}

	logs, err := services.GetLogsByEventType(h.robotID(c), eventType, queryLimit(c))
	if err != nil {
		return fetchError(c, err, "Failed to fetch logs")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(logs),
		"event_type": eventType,
		"logs":       logs,
	})
}

// HandleGetLogStats - 로그 통계 조회
func (h *LogHandler) HandleGetLogStats(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	stats, err := services.GetLogStats(h.robotID(c), hours)
	if err != nil {
		return fetchError(c, err, "Failed to fetch stats")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
