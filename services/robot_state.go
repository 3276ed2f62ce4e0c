package services

import (
	"errors"
	"fmt"
	"log"
	"pickplace-backend/models"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionChanged - 명령을 준비한 뒤 로봇이 다시 초기화됨
var ErrSessionChanged = errors.New("robot was re-initialized")

// RobotState - 로봇 인스턴스 소유자
//
// HTTP/WebSocket 요청과 픽앤플레이스 작업이 동시에 들어와도
// Robot에 대한 접근은 mu로 직렬화된다.
type RobotState struct {
	mu            sync.Mutex
	robot         *Robot
	sessionID     string
	limits        models.Vector3
	clock         Clock
	broadcastFunc func(models.WebSocketMessage)
}

// NewRobotState - 기본 로봇([0,0,0], 홈 [0,0,0], OPEN)으로 시작
func NewRobotState(limits models.Vector3, clock Clock, broadcastFunc func(models.WebSocketMessage)) *RobotState {
	if clock == nil {
		clock = RealClock{}
	}
	s := &RobotState{
		limits:        limits,
		clock:         clock,
		broadcastFunc: broadcastFunc,
	}
	s.robot = s.newRobot(models.Vector3{}, models.Vector3{}, models.GripperOpen)
	s.sessionID = uuid.NewString()
	return s
}

func (s *RobotState) newRobot(initial, home models.Vector3, gripper models.GripperState) *Robot {
	return NewRobot(initial, home, gripper, WithClock(s.clock), WithLimits(s.limits))
}

// Initialize - 로봇 교체 (진행 중이던 이동 상태는 버림)
//
// 초기 위치나 홈 위치가 작업 범위를 벗어나면 기존 로봇을 그대로 둔다.
func (s *RobotState) Initialize(initial, home models.Vector3, gripper models.GripperState) (models.RobotSnapshot, error) {
	if err := ValidatePosition(initial, s.limits); err != nil {
		return models.RobotSnapshot{}, fmt.Errorf("initial_position: %w", err)
	}
	if err := ValidatePosition(home, s.limits); err != nil {
		return models.RobotSnapshot{}, fmt.Errorf("home_position: %w", err)
	}

	s.mu.Lock()
	s.robot = s.newRobot(initial, home, gripper)
	s.sessionID = uuid.NewString()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Printf("🤖 로봇 초기화: session=%s pos=%v home=%v gripper=%s", snap.SessionID, initial, home, gripper)
	LogInitialize(snap.SessionID, snap)
	s.broadcast(models.MessageTypeStatus, snap)
	return snap, nil
}

// MoveTo - 목표 위치로 이동 (한 번의 폴링)
func (s *RobotState) MoveTo(target models.Vector3, speed float64) (models.Vector3, models.Vector3, error) {
	return s.move("", target, speed, false)
}

// MoveHome - 홈 위치로 이동 (한 번의 폴링)
func (s *RobotState) MoveHome(speed float64) (models.Vector3, models.Vector3, error) {
	return s.move("", models.Vector3{}, speed, true)
}

// MoveToInSession - sessionID 세션이 유지될 때만 MoveTo
func (s *RobotState) MoveToInSession(sessionID string, target models.Vector3, speed float64) (models.Vector3, models.Vector3, error) {
	return s.move(sessionID, target, speed, false)
}

// MoveHomeInSession - sessionID 세션이 유지될 때만 MoveHome
func (s *RobotState) MoveHomeInSession(sessionID string, speed float64) (models.Vector3, models.Vector3, error) {
	return s.move(sessionID, models.Vector3{}, speed, true)
}

// move - 한 번의 폴링 (expectSession이 비어 있지 않으면 세션 일치 확인)
func (s *RobotState) move(expectSession string, target models.Vector3, speed float64, home bool) (models.Vector3, models.Vector3, error) {
	s.mu.Lock()
	if expectSession != "" && expectSession != s.sessionID {
		pos, axisSpeed := s.robot.Position(), s.robot.AxisSpeed()
		s.mu.Unlock()
		return pos, axisSpeed, ErrSessionChanged
	}
	if home {
		target = s.robot.Home()
	}
	wasMoving := s.robot.InMotion()
	wasRedirected := s.robot.Redirected()
	sessionID := s.sessionID

	var pos, axisSpeed models.Vector3
	var err error
	if home {
		pos, axisSpeed, err = s.robot.MoveHome(speed)
	} else {
		pos, axisSpeed, err = s.robot.MoveTo(target, speed)
	}
	redirected := s.robot.Redirected()
	s.mu.Unlock()

	if err != nil {
		log.Printf("⚠️ 이동 요청 거부: %v", err)
		LogMoveRejected(sessionID, pos, target, speed, err)
		return pos, axisSpeed, err
	}

	moving := !axisSpeed.IsZero()
	switch {
	case !wasMoving && moving:
		LogMotion(sessionID, models.EventMotionStart, pos, axisSpeed, target, speed)
	case !wasRedirected && redirected:
		LogMotion(sessionID, models.EventMotionRedirect, pos, axisSpeed, target, speed)
	}
	if wasMoving && !moving {
		log.Printf("✅ 이동 완료: %v", pos)
		LogMotion(sessionID, models.EventMotionComplete, pos, axisSpeed, target, speed)
	}

	s.broadcast(models.MessageTypePosition, models.PositionData{
		SessionID:       sessionID,
		CurrentPosition: pos,
		AxisSpeed:       axisSpeed,
		InMotion:        moving,
	})
	return pos, axisSpeed, nil
}

// OpenGripper - 그리퍼 열기
func (s *RobotState) OpenGripper() models.GripperState {
	state, _ := s.setGripper("", false)
	return state
}

// CloseGripper - 그리퍼 닫기
func (s *RobotState) CloseGripper() models.GripperState {
	state, _ := s.setGripper("", true)
	return state
}

// SetGripperInSession - sessionID 세션이 유지될 때만 그리퍼 변경
func (s *RobotState) SetGripperInSession(sessionID string, closed bool) (models.GripperState, error) {
	return s.setGripper(sessionID, closed)
}

func (s *RobotState) setGripper(expectSession string, closed bool) (models.GripperState, error) {
	s.mu.Lock()
	if expectSession != "" && expectSession != s.sessionID {
		current := s.robot.Gripper()
		s.mu.Unlock()
		return current, ErrSessionChanged
	}
	var state models.GripperState
	if closed {
		state = s.robot.ClosedGripper()
	} else {
		state = s.robot.OpenGripper()
	}
	sessionID := s.sessionID
	pos := s.robot.Position()
	s.mu.Unlock()

	log.Printf("✊ 그리퍼: %s", state)
	LogGripper(sessionID, state, pos)
	s.broadcast(models.MessageTypeGripper, models.GripperData{
		SessionID:    sessionID,
		GripperState: state,
		Label:        state.String(),
	})
	return state, nil
}

// Snapshot - 현재 상태 조회
func (s *RobotState) Snapshot() models.RobotSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Limits - 축별 작업 범위
func (s *RobotState) Limits() models.Vector3 {
	return s.limits
}

// SessionID - 현재 초기화 세션 ID (로그 조회 키)
func (s *RobotState) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *RobotState) snapshotLocked() models.RobotSnapshot {
	snap := s.robot.Snapshot()
	snap.SessionID = s.sessionID
	return snap
}

// broadcast - WebSocket 브로드캐스트 (broadcastFunc가 없으면 무시)
func (s *RobotState) broadcast(msgType string, data interface{}) {
	if s.broadcastFunc == nil {
		return
	}
	s.broadcastFunc(models.NewMessage(msgType, data))
}
