package models

import "time"

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Server → Web
	MessageTypePosition   = "position"    // 로봇 위치/축 속도 업데이트
	MessageTypeStatus     = "status"      // 로봇 전체 상태 (초기화 등)
	MessageTypeGripper    = "gripper"     // 그리퍼 상태 변경
	MessageTypeTaskUpdate = "task_update" // 픽앤플레이스 작업 진행
	MessageTypeMoveResult = "move_result" // WebSocket 명령에 대한 응답
	MessageTypeError      = "error"       // 잘못된 명령
	MessageTypeSystemInfo = "system_info" // 시스템 정보

	// Web → Server
	MessageTypeMoveTo       = "move_to"
	MessageTypeMoveHome     = "move_home"
	MessageTypeOpenGripper  = "open_gripper"
	MessageTypeCloseGripper = "close_gripper"
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// NewMessage - 현재 시각으로 메시지 생성
func NewMessage(msgType string, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ========================================
// 위치 데이터
// ========================================
type PositionData struct {
	SessionID       string  `json:"session_id"`
	CurrentPosition Vector3 `json:"current_position"` // mm
	AxisSpeed       Vector3 `json:"axis_speed"`       // mm/s
	InMotion        bool    `json:"in_motion"`
}

// ========================================
// 그리퍼 데이터
// ========================================
type GripperData struct {
	SessionID    string       `json:"session_id"`
	GripperState GripperState `json:"gripper_state"`
	Label        string       `json:"label"`
}

// ========================================
// 시스템 정보
// ========================================
type SystemInfo struct {
	Message          string        `json:"message"`
	ConnectedClients int           `json:"connected_clients"` // 연결된 클라이언트 수
	ServerTime       time.Time     `json:"server_time"`       // 서버 시각
	Robot            RobotSnapshot `json:"robot"`             // 현재 로봇 상태
}
