package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"pickplace-backend/models"
	"time"
)

// 이동 검증 오류
var (
	ErrSpeedOutOfRange     = errors.New("speed out of range")
	ErrPositionOutOfBounds = errors.New("position out of bounds")
	ErrZeroSpeed           = errors.New("zero speed")
)

// 속도 허용 범위 (mm/s)
const (
	MinSpeed = 0.0
	MaxSpeed = 100.0
)

// DefaultRobotLimits - 축별 작업 범위 [-limit, +limit] (mm)
var DefaultRobotLimits = models.Vector3{1000, 1000, 1000}

// Robot - 3축 직교 로봇 모션 모델
//
// 내부에서 락을 잡지 않는다. 동시 호출은 소유자(RobotState)가 직렬화한다.
// 위치는 MoveTo/MoveHome이 호출될 때만 경과 시간만큼 적분된다.
type Robot struct {
	currentPosition models.Vector3
	homePosition    models.Vector3
	gripperState    models.GripperState
	axisSpeed       models.Vector3
	lastMotionTime  time.Time
	robotLimits     models.Vector3

	// 현재 구간을 계획한 목표와 이동 중 목표 변경 여부
	segmentTarget models.Vector3
	redirected    bool

	clock Clock
}

// RobotOption - Robot 생성 옵션
type RobotOption func(*Robot)

// WithClock - 시간 공급자 지정
func WithClock(c Clock) RobotOption {
	return func(r *Robot) {
		r.clock = c
	}
}

// WithLimits - 축별 작업 범위 지정
func WithLimits(limits models.Vector3) RobotOption {
	return func(r *Robot) {
		r.robotLimits = limits
	}
}

// NewRobot - 로봇 생성 (정지 상태로 시작)
func NewRobot(initial, home models.Vector3, gripper models.GripperState, opts ...RobotOption) *Robot {
	r := &Robot{
		currentPosition: initial,
		homePosition:    home,
		gripperState:    gripper,
		robotLimits:     DefaultRobotLimits,
		clock:           RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MoveTo - 목표 위치로 이동 (폴링 방식)
//
// 한 번의 호출은 직전 호출 이후 경과한 시간만큼만 위치를 전진시킨다.
// 오류가 반환되면 상태는 변경되지 않는다.
func (r *Robot) MoveTo(target models.Vector3, speed float64) (models.Vector3, models.Vector3, error) {
	if err := r.validate(target, speed); err != nil {
		return r.currentPosition, r.axisSpeed, err
	}

	if r.samePosition(target) {
		return r.currentPosition, r.axisSpeed, nil
	}

	now := r.clock.Now()

	if r.axisSpeed.IsZero() {
		if speed == 0 {
			return r.currentPosition, r.axisSpeed, fmt.Errorf("cannot plan a motion to %v at 0 mm/s: %w", target, ErrZeroSpeed)
		}
		r.axisSpeed = r.planMotion(target, speed)
		r.lastMotionTime = now
		r.segmentTarget = target
		r.redirected = false
	} else if target != r.segmentTarget && !r.redirected {
		// 이전 속도 벡터를 그대로 사용하고 완료 판정만 새 목표로 한다
		r.redirected = true
		log.Printf("⚠️ 이동 중 목표 변경: %v → %v (기존 축 속도 %v 유지)", r.segmentTarget, target, r.axisSpeed)
	}

	dt := now.Sub(r.lastMotionTime).Seconds()
	for i := range r.currentPosition {
		r.currentPosition[i] += dt * r.axisSpeed[i]
	}
	r.lastMotionTime = now

	if r.isMotionCompleted(target) {
		r.axisSpeed = models.Vector3{}
		r.currentPosition = target
	}

	return r.currentPosition, r.axisSpeed, nil
}

// MoveHome - 홈 위치로 이동
func (r *Robot) MoveHome(speed float64) (models.Vector3, models.Vector3, error) {
	return r.MoveTo(r.homePosition, speed)
}

// OpenGripper - 그리퍼 열기
func (r *Robot) OpenGripper() models.GripperState {
	r.gripperState = models.GripperOpen
	return r.gripperState
}

// ClosedGripper - 그리퍼 닫기
func (r *Robot) ClosedGripper() models.GripperState {
	r.gripperState = models.GripperClosed
	return r.gripperState
}

// validate - 속도와 목표 위치 범위 검사 (첫 번째 위반만 보고)
func (r *Robot) validate(target models.Vector3, speed float64) error {
	if !(speed >= MinSpeed && speed <= MaxSpeed) {
		return fmt.Errorf("requested speed of %g mm/s is outside of the limits [%g,%g]: %w",
			speed, MinSpeed, MaxSpeed, ErrSpeedOutOfRange)
	}
	return ValidatePosition(target, r.robotLimits)
}

// ValidatePosition - 각 축이 [-limit, +limit] 안에 있는지 검사 (첫 번째 위반만 보고)
func ValidatePosition(pos, limits models.Vector3) error {
	for i, v := range pos {
		limit := limits[i]
		if !(v >= -limit && v <= limit) {
			return fmt.Errorf("requested position of %g for axis %d is outside of the limits %v: %w",
				v, i, limits, ErrPositionOutOfBounds)
		}
	}
	return nil
}

// planMotion - 제어축(변위가 가장 큰 축) 기준으로 축별 속도 계산
//
// 모든 축이 동시에 도착하도록 같은 이동 시간을 공유한다.
// speed는 0이 아니어야 한다.
func (r *Robot) planMotion(target models.Vector3, speed float64) models.Vector3 {
	delta := target.Sub(r.currentPosition)

	// 동률이면 앞선 축 유지
	control := 0
	for i := 1; i < len(delta); i++ {
		if math.Abs(delta[i]) > math.Abs(delta[control]) {
			control = i
		}
	}

	motionTime := math.Abs(delta[control]) / speed

	var axisSpeed models.Vector3
	for i, d := range delta {
		axisSpeed[i] = d / motionTime
	}
	return axisSpeed
}

// samePosition - 현재 위치와 목표가 정확히 같은지
func (r *Robot) samePosition(target models.Vector3) bool {
	return target.Sub(r.currentPosition).IsZero()
}

// isMotionCompleted - 아직 목표 방향으로 접근 중인 축이 없으면 완료
func (r *Robot) isMotionCompleted(target models.Vector3) bool {
	for i, t := range target {
		remaining := t - r.currentPosition[i]
		if (remaining > 0 && r.axisSpeed[i] > 0) || (remaining < 0 && r.axisSpeed[i] < 0) {
			return false
		}
	}
	return true
}

// Position - 현재 위치
func (r *Robot) Position() models.Vector3 { return r.currentPosition }

// Home - 홈 위치
func (r *Robot) Home() models.Vector3 { return r.homePosition }

// AxisSpeed - 현재 축 속도
func (r *Robot) AxisSpeed() models.Vector3 { return r.axisSpeed }

// Limits - 축별 작업 범위
func (r *Robot) Limits() models.Vector3 { return r.robotLimits }

// Gripper - 그리퍼 상태
func (r *Robot) Gripper() models.GripperState { return r.gripperState }

// InMotion - 이동 구간이 진행 중인지
func (r *Robot) InMotion() bool { return !r.axisSpeed.IsZero() }

// Target - 현재 구간을 시작한 목표 위치 (정지 상태면 false)
func (r *Robot) Target() (models.Vector3, bool) {
	return r.segmentTarget, r.InMotion()
}

// Redirected - 현재 구간 진행 중 다른 목표가 요청되었는지
func (r *Robot) Redirected() bool { return r.InMotion() && r.redirected }

// LastMotionTime - 마지막 적분 시각 (이동 중일 때만 의미 있음)
func (r *Robot) LastMotionTime() time.Time { return r.lastMotionTime }

// Snapshot - 현재 상태 복사본
func (r *Robot) Snapshot() models.RobotSnapshot {
	snap := models.RobotSnapshot{
		CurrentPosition: r.currentPosition,
		HomePosition:    r.homePosition,
		GripperState:    r.gripperState,
		AxisSpeed:       r.axisSpeed,
		RobotLimits:     r.robotLimits,
		InMotion:        r.InMotion(),
		Redirected:      r.Redirected(),
	}
	if snap.InMotion {
		target := r.segmentTarget
		last := r.lastMotionTime
		snap.Target = &target
		snap.LastMotionTime = &last
	}
	return snap
}
