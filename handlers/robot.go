package handlers

import (
	"context"
	"errors"
	"log"
	"pickplace-backend/models"
	"pickplace-backend/services"

	"github.com/gofiber/fiber/v2"
)

// RobotHandler - 로봇 HTTP 엔드포인트
//
// 로봇 인스턴스는 main에서 만든 RobotState를 주입받아 사용한다.
type RobotHandler struct {
	ctx   context.Context // 백그라운드 작업 수명
	state *services.RobotState
	tasks *services.PickPlaceSequencer
}

// NewRobotHandler - 핸들러 생성
func NewRobotHandler(ctx context.Context, state *services.RobotState, tasks *services.PickPlaceSequencer) *RobotHandler {
	return &RobotHandler{ctx: ctx, state: state, tasks: tasks}
}

// Register - 라우트 등록
func (h *RobotHandler) Register(router fiber.Router) {
	router.Post("/initialize_robot", h.HandleInitialize)
	router.Post("/move_to", h.HandleMoveTo)
	router.Post("/move_home", h.HandleMoveHome)
	router.Post("/open_gripper", h.HandleOpenGripper)
	router.Post("/close_gripper", h.HandleCloseGripper)
	router.Get("/robot", h.HandleGetRobot)

	tasks := router.Group("/api/tasks")
	tasks.Post("/pick_place", h.HandleStartPickPlace)
	tasks.Get("/current", h.HandleGetTask)
	tasks.Post("/current/cancel", h.HandleCancelTask)
}

// HandleInitialize - 로봇 초기화 (기존 로봇과 이동 상태는 버림)
func (h *RobotHandler) HandleInitialize(c *fiber.Ctx) error {
	var req models.RobotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다")
	}

	initial, err := models.VectorFromSlice(req.InitialPosition)
	if err != nil {
		return badRequest(c, "initial_position: "+err.Error())
	}
	home, err := models.VectorFromSlice(req.HomePosition)
	if err != nil {
		return badRequest(c, "home_position: "+err.Error())
	}
	if !req.GripperState.Valid() {
		return badRequest(c, "gripper_state는 0(OPEN) 또는 1(CLOSED)이어야 합니다")
	}
	if err := services.ValidatePosition(initial, h.state.Limits()); err != nil {
		return badRequest(c, "initial_position: "+err.Error())
	}
	if err := services.ValidatePosition(home, h.state.Limits()); err != nil {
		return badRequest(c, "home_position: "+err.Error())
	}

	if h.tasks != nil {
		if _, err := h.tasks.Cancel(); err == nil {
			log.Println("🛑 초기화로 인해 진행 중인 작업 취소")
		}
	}

	snap, err := h.state.Initialize(initial, home, req.GripperState)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{
		"message": "Robot initialized successfully",
		"robot":   snap,
	})
}

// HandleMoveTo - 목표 위치로 한 단계 이동 (클라이언트가 반복 호출)
func (h *RobotHandler) HandleMoveTo(c *fiber.Ctx) error {
	var req models.MoveToRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다")
	}

	target, err := models.VectorFromSlice(req.TargetPosition)
	if err != nil {
		return badRequest(c, "target_position: "+err.Error())
	}

	speed := float64(models.DefaultMoveToSpeed)
	if req.Speed != nil {
		speed = *req.Speed
	}

	pos, axisSpeed, err := h.state.MoveTo(target, speed)
	return c.JSON(moveResponse(pos, axisSpeed, err))
}

// HandleMoveHome - 홈 위치로 한 단계 이동
func (h *RobotHandler) HandleMoveHome(c *fiber.Ctx) error {
	var req models.MoveHomeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "잘못된 요청 형식입니다")
		}
	}

	speed := float64(models.DefaultMoveHomeSpeed)
	if req.Speed != nil {
		speed = *req.Speed
	}

	pos, axisSpeed, err := h.state.MoveHome(speed)
	return c.JSON(moveResponse(pos, axisSpeed, err))
}

// HandleOpenGripper - 그리퍼 열기
func (h *RobotHandler) HandleOpenGripper(c *fiber.Ctx) error {
	return c.JSON(gripperResponse(h.state.OpenGripper()))
}

// HandleCloseGripper - 그리퍼 닫기
func (h *RobotHandler) HandleCloseGripper(c *fiber.Ctx) error {
	return c.JSON(gripperResponse(h.state.CloseGripper()))
}

// HandleGetRobot - 현재 로봇 상태
func (h *RobotHandler) HandleGetRobot(c *fiber.Ctx) error {
	return c.JSON(h.state.Snapshot())
}

// HandleStartPickPlace - 픽앤플레이스 작업 시작
func (h *RobotHandler) HandleStartPickPlace(c *fiber.Ctx) error {
	var cell models.Workcell
	if err := c.BodyParser(&cell); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다")
	}

	task, err := h.tasks.Start(h.ctx, cell)
	switch {
	case errors.Is(err, services.ErrTaskRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"task":    task,
	})
}

// HandleGetTask - 마지막 작업 조회
func (h *RobotHandler) HandleGetTask(c *fiber.Ctx) error {
	task, ok := h.tasks.Current()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": services.ErrNoTask.Error()})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"task":    task,
	})
}

// HandleCancelTask - 진행 중인 작업 취소
func (h *RobotHandler) HandleCancelTask(c *fiber.Ctx) error {
	task, err := h.tasks.Cancel()
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"task":    task,
	})
}

// moveResponse - 이동 결과를 응답 형식으로 변환 (오류는 err_msg 문자열)
func moveResponse(pos, axisSpeed models.Vector3, err error) models.MoveToResponse {
	resp := models.MoveToResponse{
		CurrentPosition: pos,
		AxisSpeed:       axisSpeed,
	}
	if err != nil {
		msg := err.Error()
		resp.ErrMsg = &msg
	}
	return resp
}

func gripperResponse(state models.GripperState) models.GripperResponse {
	return models.GripperResponse{
		GripperState: state,
		Label:        state.String(),
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
