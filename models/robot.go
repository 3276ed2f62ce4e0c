package models

import (
	"fmt"
	"time"
)

// ========================================
// 좌표 / 그리퍼 타입
// ========================================

// Vector3 - X, Y, Z 축 값 (위치는 mm, 속도는 mm/s)
// JSON으로는 [x, y, z] 배열로 직렬화된다.
type Vector3 [3]float64

// Add - 축별 덧셈
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub - 축별 뺄셈
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// IsZero - 모든 축이 0인지 확인
func (v Vector3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// VectorFromSlice - 요청 본문의 리스트를 Vector3로 변환 (정확히 3개여야 함)
func VectorFromSlice(values []float64) (Vector3, error) {
	var v Vector3
	if len(values) != len(v) {
		return v, fmt.Errorf("3개의 좌표가 필요합니다 (받은 값: %d개)", len(values))
	}
	copy(v[:], values)
	return v, nil
}

// GripperState - 그리퍼 상태 (JSON에서는 정수 0/1)
type GripperState int

const (
	GripperOpen   GripperState = 0
	GripperClosed GripperState = 1
)

func (g GripperState) String() string {
	switch g {
	case GripperOpen:
		return "OPEN"
	case GripperClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("GripperState(%d)", int(g))
	}
}

// Valid - 정의된 상태인지 확인
func (g GripperState) Valid() bool {
	return g == GripperOpen || g == GripperClosed
}

// ========================================
// 요청 / 응답
// ========================================

// 기본 속도 (mm/s)
const (
	DefaultMoveToSpeed   = 90
	DefaultMoveHomeSpeed = 50
)

// RobotRequest - 로봇 초기화 요청
type RobotRequest struct {
	InitialPosition []float64    `json:"initial_position"`
	HomePosition    []float64    `json:"home_position"`
	GripperState    GripperState `json:"gripper_state"`
}

// MoveToRequest - 목표 위치 이동 요청
type MoveToRequest struct {
	TargetPosition []float64 `json:"target_position"`
	Speed          *float64  `json:"speed"` // 없으면 DefaultMoveToSpeed
}

// MoveHomeRequest - 홈 위치 이동 요청
type MoveHomeRequest struct {
	Speed *float64 `json:"speed"` // 없으면 DefaultMoveHomeSpeed
}

// MoveToResponse - move_to / move_home 응답
// err_msg가 null이 아니면 상태는 변경되지 않은 것이다.
type MoveToResponse struct {
	CurrentPosition Vector3 `json:"current_position"`
	AxisSpeed       Vector3 `json:"axis_speed"`
	ErrMsg          *string `json:"err_msg"`
}

// GripperResponse - 그리퍼 조작 응답
type GripperResponse struct {
	GripperState GripperState `json:"gripper_state"`
	Label        string       `json:"label"`
}

// RobotSnapshot - 로봇 전체 상태 (조회/초기화 응답용)
type RobotSnapshot struct {
	SessionID       string       `json:"session_id"`
	CurrentPosition Vector3      `json:"current_position"`
	HomePosition    Vector3      `json:"home_position"`
	GripperState    GripperState `json:"gripper_state"`
	AxisSpeed       Vector3      `json:"axis_speed"`
	RobotLimits     Vector3      `json:"robot_limits"`
	InMotion        bool         `json:"in_motion"`
	Target          *Vector3     `json:"target,omitempty"`     // 현재 구간을 계획한 목표
	Redirected      bool         `json:"redirected,omitempty"` // 이동 중 목표가 바뀌었음
	LastMotionTime  *time.Time   `json:"last_motion_time,omitempty"`
}
