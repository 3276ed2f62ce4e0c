package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"pickplace-backend/models"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTaskRunning = errors.New("pick-and-place task already running")
	ErrNoTask      = errors.New("no active pick-and-place task")
)

// PickPlaceSequencer - 픽앤플레이스 작업 실행기
//
// 웹 클라이언트가 20ms마다 move_to를 호출하던 흐름을 서버에서 대신 수행한다.
// 로봇 상태는 RobotState를 통해서만 변경한다.
type PickPlaceSequencer struct {
	mu            sync.Mutex
	state         *RobotState
	pollInterval  time.Duration
	broadcastFunc func(models.WebSocketMessage)

	task   *models.PickPlaceTask
	cancel context.CancelFunc
}

// NewPickPlaceSequencer - 실행기 생성
func NewPickPlaceSequencer(state *RobotState, pollInterval time.Duration, broadcastFunc func(models.WebSocketMessage)) *PickPlaceSequencer {
	if pollInterval <= 0 {
		pollInterval = 20 * time.Millisecond
	}
	return &PickPlaceSequencer{
		state:         state,
		pollInterval:  pollInterval,
		broadcastFunc: broadcastFunc,
	}
}

// BuildPickPlaceSteps - 작업 공간 설정으로 단계 목록 생성
//
// 테이블 A 접근 → 집기 → 테이블 B 접근 → 놓기 (→ 홈 복귀)
func BuildPickPlaceSteps(cell models.Workcell) ([]models.TaskStep, error) {
	speed := cell.Speed
	if speed == 0 {
		speed = models.DefaultMoveToSpeed
	}
	if !(speed > MinSpeed && speed <= MaxSpeed) {
		return nil, fmt.Errorf("requested speed of %g mm/s is outside of the limits (%g,%g]: %w",
			speed, MinSpeed, MaxSpeed, ErrSpeedOutOfRange)
	}

	offset := models.DefaultApproachOffset
	if cell.ApproachOffset != nil {
		offset = *cell.ApproachOffset
	}

	pick := cell.TableA.Add(offset)
	place := cell.TableB.Add(offset)
	steps := []models.TaskStep{
		{Kind: models.StepMoveTo, Target: &pick, Speed: speed},
		{Kind: models.StepCloseGripper},
		{Kind: models.StepMoveTo, Target: &place, Speed: speed},
		{Kind: models.StepOpenGripper},
	}
	if cell.ReturnHome {
		steps = append(steps, models.TaskStep{Kind: models.StepMoveHome, Speed: speed})
	}
	return steps, nil
}

// Prepare - 새 작업 등록 (실행은 Step/Run이 담당)
func (q *PickPlaceSequencer) Prepare(cell models.Workcell) (models.PickPlaceTask, error) {
	steps, err := BuildPickPlaceSteps(cell)
	if err != nil {
		return models.PickPlaceTask{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.task != nil && !q.task.Done() {
		return models.PickPlaceTask{}, ErrTaskRunning
	}

	q.task = &models.PickPlaceTask{
		ID:        uuid.NewString(),
		SessionID: q.state.SessionID(),
		Status:    models.TaskPending,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
	q.cancel = nil
	return copyTask(q.task), nil
}

// Start - 작업 등록 후 백그라운드 실행
func (q *PickPlaceSequencer) Start(ctx context.Context, cell models.Workcell) (models.PickPlaceTask, error) {
	task, err := q.Prepare(cell)
	if err != nil {
		return task, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()

	go q.Run(runCtx)
	log.Printf("📦 픽앤플레이스 작업 시작: %s", task.ID)
	return task, nil
}

// Run - 작업이 끝날 때까지 pollInterval마다 Step 호출
func (q *PickPlaceSequencer) Run(ctx context.Context) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		if q.Step() {
			return
		}
		select {
		case <-ctx.Done():
			q.finish(models.TaskCancelled, ctx.Err().Error())
			return
		case <-ticker.C:
		}
	}
}

// Step - 한 번의 폴링 진행, 작업이 종료되었으면 true
func (q *PickPlaceSequencer) Step() bool {
	q.mu.Lock()
	task := q.task
	if task == nil || task.Done() {
		q.mu.Unlock()
		return true
	}
	if task.Status == models.TaskPending {
		task.Status = models.TaskRunning
		LogTask(task.SessionID, models.EventTaskStart, task)
	}
	step := task.Steps[task.CurrentStep]
	q.mu.Unlock()

	// 작업 세션과 다른 로봇(재초기화)에는 명령하지 않는다
	advanced := false
	var err error
	switch step.Kind {
	case models.StepMoveTo, models.StepMoveHome:
		var axisSpeed models.Vector3
		if step.Kind == models.StepMoveHome {
			_, axisSpeed, err = q.state.MoveHomeInSession(task.SessionID, step.Speed)
		} else if step.Target == nil {
			return q.finish(models.TaskFailed, "move_to step without target")
		} else {
			_, axisSpeed, err = q.state.MoveToInSession(task.SessionID, *step.Target, step.Speed)
		}
		// 완료 시 위치는 목표로 스냅되므로 정지 여부만 확인
		advanced = err == nil && axisSpeed.IsZero()
	case models.StepCloseGripper:
		_, err = q.state.SetGripperInSession(task.SessionID, true)
		advanced = err == nil
	case models.StepOpenGripper:
		_, err = q.state.SetGripperInSession(task.SessionID, false)
		advanced = err == nil
	default:
		return q.finish(models.TaskFailed, fmt.Sprintf("unknown step %q", step.Kind))
	}

	switch {
	case errors.Is(err, ErrSessionChanged):
		return q.finish(models.TaskCancelled, err.Error())
	case err != nil:
		return q.finish(models.TaskFailed, err.Error())
	}

	if !advanced {
		return false
	}

	q.mu.Lock()
	if q.task != task || task.Done() {
		q.mu.Unlock()
		return true
	}
	switch step.Kind {
	case models.StepCloseGripper:
		task.Carrying = true
	case models.StepOpenGripper:
		task.Carrying = false
	}
	task.CurrentStep++
	last := task.CurrentStep >= len(task.Steps)
	snapshot := copyTask(task)
	q.mu.Unlock()

	if last {
		return q.finish(models.TaskCompleted, "")
	}
	q.broadcast(snapshot)
	return false
}

// Cancel - 진행 중인 작업 취소
func (q *PickPlaceSequencer) Cancel() (models.PickPlaceTask, error) {
	q.mu.Lock()
	if q.task == nil || q.task.Done() {
		q.mu.Unlock()
		return models.PickPlaceTask{}, ErrNoTask
	}
	cancel := q.cancel
	q.mu.Unlock()

	q.finish(models.TaskCancelled, "cancelled by request")
	if cancel != nil {
		cancel()
	}
	task, _ := q.Current()
	return task, nil
}

// Current - 마지막 작업 조회
func (q *PickPlaceSequencer) Current() (models.PickPlaceTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.task == nil {
		return models.PickPlaceTask{}, false
	}
	return copyTask(q.task), true
}

// finish - 작업 종료 처리 (이미 종료된 작업이면 무시), 항상 true
func (q *PickPlaceSequencer) finish(status, reason string) bool {
	q.mu.Lock()
	task := q.task
	if task == nil || task.Done() {
		q.mu.Unlock()
		return true
	}
	now := time.Now()
	task.Status = status
	task.Error = reason
	task.FinishedAt = &now
	snapshot := copyTask(task)
	q.mu.Unlock()

	if status == models.TaskCompleted {
		log.Printf("✅ 픽앤플레이스 작업 완료: %s", snapshot.ID)
	} else {
		log.Printf("🛑 픽앤플레이스 작업 종료 (%s): %s %s", status, snapshot.ID, reason)
	}
	LogTask(snapshot.SessionID, models.EventTaskFinish, &snapshot)
	q.broadcast(snapshot)
	return true
}

func (q *PickPlaceSequencer) broadcast(task models.PickPlaceTask) {
	if q.broadcastFunc == nil {
		return
	}
	q.broadcastFunc(models.NewMessage(models.MessageTypeTaskUpdate, task))
}

func copyTask(t *models.PickPlaceTask) models.PickPlaceTask {
	c := *t
	c.Steps = append([]models.TaskStep(nil), t.Steps...)
	return c
}
