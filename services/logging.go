package services

import (
	"fmt"
	"log"
	"pickplace-backend/models"
	"sync"
	"time"
)

// 로깅 버퍼 (비동기 일괄 처리)
type LogBuffer struct {
	logs      []models.RobotLog
	mu        sync.Mutex
	flushSize int           // 일괄 저장 크기
	flushTime time.Duration // 자동 플러시 시간
	stopChan  chan struct{}
	done      chan struct{}
}

var (
	logBuffer   *LogBuffer
	logBufferMu sync.RWMutex // logBuffer 교체와 AddLog 사이 보호
)

// InitLogging - 로깅 시스템 초기화
func InitLogging(flushSize int, flushInterval time.Duration) {
	lb := newLogBuffer(flushSize, flushInterval)

	logBufferMu.Lock()
	logBuffer = lb
	logBufferMu.Unlock()

	// 자동 플러시 고루틴 시작
	go lb.autoFlush()

	log.Printf("✅ 로깅 시스템 초기화 완료 (flushSize: %d, flushInterval: %v)", flushSize, flushInterval)
}

func newLogBuffer(flushSize int, flushInterval time.Duration) *LogBuffer {
	return &LogBuffer{
		logs:      make([]models.RobotLog, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// autoFlush - 주기적 로그 저장
func (lb *LogBuffer) autoFlush() {
	defer close(lb.done)

	ticker := time.NewTicker(lb.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lb.Flush()
		case <-lb.stopChan:
			lb.Flush() // 종료 시 남은 로그 저장
			return
		}
	}
}

// add - 버퍼에 추가하고 플러시가 필요한지 반환
func (lb *LogBuffer) add(entry models.RobotLog) bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.logs = append(lb.logs, entry)
	return len(lb.logs) >= lb.flushSize
}

// Len - 저장 대기 중인 로그 수
func (lb *LogBuffer) Len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.logs)
}

// AddLog - 로그 버퍼에 추가 (비동기)
func AddLog(entry models.RobotLog) {
	logBufferMu.RLock()
	defer logBufferMu.RUnlock()

	lb := logBuffer
	if lb == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	// 저장 시각은 UTC로 통일 (SQLite는 문자열로 비교)
	entry.CreatedAt = entry.CreatedAt.UTC()

	// 버퍼 크기가 차면 즉시 플러시
	if lb.add(entry) {
		go lb.Flush()
	}
}

// Flush - 버퍼의 모든 로그를 DB에 저장
func (lb *LogBuffer) Flush() {
	lb.mu.Lock()
	if len(lb.logs) == 0 {
		lb.mu.Unlock()
		return
	}

	// 로그 복사 및 버퍼 초기화
	logsToSave := make([]models.RobotLog, len(lb.logs))
	copy(logsToSave, lb.logs)
	lb.logs = lb.logs[:0]
	lb.mu.Unlock()

	// DB 미사용이면 버림
	if db == nil {
		return
	}

	if err := db.CreateInBatches(logsToSave, 100).Error; err != nil {
		log.Printf("❌ 로그 저장 실패: %v", err)
		return
	}
	log.Printf("💾 로그 %d개 저장 완료", len(logsToSave))
}

// LogInitialize - 로봇 초기화 로그
func LogInitialize(robotID string, snap models.RobotSnapshot) {
	entry := models.RobotLog{
		EventType: models.EventInitialize,
		RobotID:   robotID,
		Gripper:   snap.GripperState.String(),
	}
	entry.SetPosition(snap.CurrentPosition)
	entry.SetTarget(snap.HomePosition)
	AddLog(entry)
}

// LogMotion - 이동 관련 로그 (시작/완료/목표 변경)
func LogMotion(robotID, eventType string, position, axisSpeed, target models.Vector3, speed float64) {
	entry := models.RobotLog{
		EventType: eventType,
		RobotID:   robotID,
		Speed:     speed,
	}
	entry.SetPosition(position)
	entry.SetAxisSpeed(axisSpeed)
	entry.SetTarget(target)
	AddLog(entry)
}

// LogMoveRejected - 검증 실패 로그
func LogMoveRejected(robotID string, position, target models.Vector3, speed float64, moveErr error) {
	entry := models.RobotLog{
		EventType: models.EventMoveRejected,
		RobotID:   robotID,
		Speed:     speed,
		ErrMsg:    moveErr.Error(),
	}
	entry.SetPosition(position)
	entry.SetTarget(target)
	AddLog(entry)
}

// LogGripper - 그리퍼 로그
func LogGripper(robotID string, state models.GripperState, position models.Vector3) {
	entry := models.RobotLog{
		EventType: models.EventGripper,
		RobotID:   robotID,
		Gripper:   state.String(),
	}
	entry.SetPosition(position)
	AddLog(entry)
}

// LogTask - 픽앤플레이스 작업 로그
func LogTask(robotID, eventType string, task *models.PickPlaceTask) {
	AddLog(models.RobotLog{
		EventType: eventType,
		RobotID:   robotID,
		TaskID:    task.ID,
		ErrMsg:    task.Error,
	})
}

// GetRecentLogs - 최근 로그 조회
func GetRecentLogs(robotID string, limit int) ([]models.RobotLog, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	var logs []models.RobotLog
	err := db.Where("robot_id = ?", robotID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// GetLogsByTimeRange - 시간 범위로 로그 조회
func GetLogsByTimeRange(robotID string, start, end time.Time, limit int) ([]models.RobotLog, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	var logs []models.RobotLog
	query := db.Where("robot_id = ? AND created_at BETWEEN ? AND ?", robotID, start.UTC(), end.UTC())

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// GetLogsByEventType - 이벤트 타입별 로그 조회
func GetLogsByEventType(robotID string, eventType string, limit int) ([]models.RobotLog, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	var logs []models.RobotLog
	err := db.Where("robot_id = ? AND event_type = ?", robotID, eventType).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// GetLogStats - 로그 통계
func GetLogStats(robotID string, hours int) (map[string]interface{}, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var totalLogs int64
	if err := db.Model(&models.RobotLog{}).
		Where("robot_id = ? AND created_at >= ?", robotID, since).
		Count(&totalLogs).Error; err != nil {
		return nil, err
	}

	// 이벤트 타입별 카운트
	var eventCounts []struct {
		EventType string
		Count     int64
	}
	if err := db.Model(&models.RobotLog{}).
		Select("event_type, COUNT(*) as count").
		Where("robot_id = ? AND created_at >= ?", robotID, since).
		Group("event_type").
		Scan(&eventCounts).Error; err != nil {
		return nil, err
	}

	eventMap := make(map[string]int64)
	for _, ec := range eventCounts {
		eventMap[ec.EventType] = ec.Count
	}

	return map[string]interface{}{
		"total_logs":   totalLogs,
		"event_counts": eventMap,
		"time_range":   fmt.Sprintf("Last %d hours", hours),
	}, nil
}

// StopLogging - 로깅 시스템 종료 (남은 로그 저장 후 반환)
func StopLogging() {
	logBufferMu.Lock()
	lb := logBuffer
	logBuffer = nil
	logBufferMu.Unlock()

	if lb == nil {
		return
	}
	close(lb.stopChan)
	<-lb.done
	log.Println("🛑 로깅 시스템 종료")
}
