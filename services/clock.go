package services

import (
	"sync"
	"time"
)

// Clock - 현재 시각 공급자 (테스트에서 시간 경과를 직접 제어하기 위함)
type Clock interface {
	Now() time.Time
}

// RealClock - time.Now 기반 시계 (monotonic 값 유지)
type RealClock struct{}

// Now - 현재 시각
func (RealClock) Now() time.Time {
	return time.Now()
}

// ManualClock - Advance 호출로만 흐르는 시계
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock - 주어진 시각에서 시작하는 수동 시계 생성
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now - 현재 (가상) 시각
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance - 시계를 d만큼 앞으로
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
