package models

import (
	"time"
)

// 로그 이벤트 타입
const (
	EventInitialize     = "initialize"
	EventMotionStart    = "motion_start"
	EventMotionComplete = "motion_complete"
	EventMotionRedirect = "motion_redirect" // 이동 중 다른 목표 요청
	EventMoveRejected   = "move_rejected"
	EventGripper        = "gripper"
	EventTaskStart      = "task_start"
	EventTaskFinish     = "task_finish"
)

// RobotLog - 로봇 동작 로그
type RobotLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	EventType string    `gorm:"index;size:32" json:"event_type"`
	RobotID   string    `gorm:"index;size:36" json:"robot_id"` // 초기화 세션 ID

	// 현재 위치 (mm)
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	PositionZ float64 `json:"position_z"`

	// 축 속도 (mm/s)
	AxisSpeedX float64 `json:"axis_speed_x"`
	AxisSpeedY float64 `json:"axis_speed_y"`
	AxisSpeedZ float64 `json:"axis_speed_z"`

	// 명령 정보
	TargetX float64 `json:"target_x"`
	TargetY float64 `json:"target_y"`
	TargetZ float64 `json:"target_z"`
	Speed   float64 `json:"speed"`

	Gripper string `gorm:"size:8" json:"gripper"`
	TaskID  string `gorm:"size:36" json:"task_id"`
	ErrMsg  string `json:"err_msg"`
}

// SetPosition - 위치 필드 채우기
func (l *RobotLog) SetPosition(v Vector3) {
	l.PositionX, l.PositionY, l.PositionZ = v[0], v[1], v[2]
}

// SetAxisSpeed - 축 속도 필드 채우기
func (l *RobotLog) SetAxisSpeed(v Vector3) {
	l.AxisSpeedX, l.AxisSpeedY, l.AxisSpeedZ = v[0], v[1], v[2]
}

// SetTarget - 목표 위치 필드 채우기
func (l *RobotLog) SetTarget(v Vector3) {
	l.TargetX, l.TargetY, l.TargetZ = v[0], v[1], v[2]
}
