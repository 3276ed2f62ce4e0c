package models

import "time"

// 작업 상태
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
	TaskCancelled = "cancelled"
)

// 작업 단계 종류
const (
	StepMoveTo       = "move_to"
	StepMoveHome     = "move_home"
	StepCloseGripper = "close_gripper"
	StepOpenGripper  = "open_gripper"
)

// DefaultApproachOffset - 테이블 기준 접근 오프셋 (mm)
var DefaultApproachOffset = Vector3{25, 25, 0}

// Workcell - 픽앤플레이스 작업 공간 (테이블 A에서 집어 테이블 B에 놓음)
type Workcell struct {
	TableA         Vector3  `json:"table_a"`
	TableB         Vector3  `json:"table_b"`
	ApproachOffset *Vector3 `json:"approach_offset,omitempty"` // 기본 [25, 25, 0]
	Speed          float64  `json:"speed"`                     // 기본 90 mm/s
	ReturnHome     bool     `json:"return_home"`
}

// TaskStep - 작업 단계
type TaskStep struct {
	Kind   string   `json:"kind"`
	Target *Vector3 `json:"target,omitempty"` // move_to 단계만 사용
	Speed  float64  `json:"speed,omitempty"`
}

// PickPlaceTask - 픽앤플레이스 작업 상태
type PickPlaceTask struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"` // 작업을 시작한 로봇 세션
	Status      string     `json:"status"`
	Steps       []TaskStep `json:"steps"`
	CurrentStep int        `json:"current_step"`
	Carrying    bool       `json:"carrying"` // 물체를 들고 있는지
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Done - 종료 상태인지 확인
func (t *PickPlaceTask) Done() bool {
	switch t.Status {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}
