package services

import (
	"errors"
	"pickplace-backend/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer_AddSignalsFlushAtSize(t *testing.T) {
	lb := newLogBuffer(3, time.Hour)

	assert.False(t, lb.add(models.RobotLog{EventType: models.EventGripper}))
	assert.False(t, lb.add(models.RobotLog{EventType: models.EventGripper}))
	assert.True(t, lb.add(models.RobotLog{EventType: models.EventGripper}))
	assert.Equal(t, 3, lb.Len())
}

func TestLogBuffer_FlushWithoutDatabaseDrops(t *testing.T) {
	SetDB(nil)
	lb := newLogBuffer(10, time.Hour)
	lb.add(models.RobotLog{EventType: models.EventInitialize})

	lb.Flush()
	assert.Equal(t, 0, lb.Len())

	// 빈 버퍼 플러시는 아무 일도 하지 않는다
	lb.Flush()
	assert.Equal(t, 0, lb.Len())
}

func TestInitLogging_StopFlushes(t *testing.T) {
	SetDB(nil)
	InitLogging(100, time.Hour)

	LogGripper("robot-1", models.GripperClosed, models.Vector3{1, 2, 3})
	LogMotion("robot-1", models.EventMotionStart, models.Vector3{}, models.Vector3{50, 0, 0}, models.Vector3{100, 0, 0}, 50)
	require.NotNil(t, logBuffer)
	assert.Equal(t, 2, logBuffer.Len())

	buf := logBuffer
	StopLogging()
	assert.Nil(t, logBuffer)
	assert.Equal(t, 0, buf.Len())

	// 종료 후 호출은 무시된다
	AddLog(models.RobotLog{EventType: models.EventGripper})
	StopLogging()
}

func TestAddLog_FillsCreatedAt(t *testing.T) {
	SetDB(nil)
	logBuffer = newLogBuffer(100, time.Hour)
	defer func() { logBuffer = nil }()

	AddLog(models.RobotLog{EventType: models.EventGripper})

	require.Len(t, logBuffer.logs, 1)
	assert.False(t, logBuffer.logs[0].CreatedAt.IsZero())
}

func TestLogHelpers_FillFields(t *testing.T) {
	SetDB(nil)
	logBuffer = newLogBuffer(100, time.Hour)
	defer func() { logBuffer = nil }()

	LogMoveRejected("robot-1", models.Vector3{1, 2, 3}, models.Vector3{4000, 0, 0}, 50, errors.New("out of bounds"))
	LogInitialize("robot-1", models.RobotSnapshot{
		CurrentPosition: models.Vector3{1, 1, 1},
		HomePosition:    models.Vector3{2, 2, 2},
		GripperState:    models.GripperClosed,
	})
	LogTask("robot-1", models.EventTaskFinish, &models.PickPlaceTask{ID: "task-1", Error: "boom"})

	require.Len(t, logBuffer.logs, 3)

	rejected := logBuffer.logs[0]
	assert.Equal(t, models.EventMoveRejected, rejected.EventType)
	assert.Equal(t, 4000.0, rejected.TargetX)
	assert.Equal(t, 3.0, rejected.PositionZ)
	assert.Equal(t, "out of bounds", rejected.ErrMsg)

	initialized := logBuffer.logs[1]
	assert.Equal(t, "CLOSED", initialized.Gripper)
	assert.Equal(t, 2.0, initialized.TargetY)

	task := logBuffer.logs[2]
	assert.Equal(t, "task-1", task.TaskID)
	assert.Equal(t, "boom", task.ErrMsg)
}

func TestLogQueries_NoDatabase(t *testing.T) {
	SetDB(nil)

	_, err := GetRecentLogs("robot-1", 10)
	assert.ErrorIs(t, err, ErrNoDatabase)

	_, err = GetLogsByTimeRange("robot-1", time.Now().Add(-time.Hour), time.Now(), 10)
	assert.ErrorIs(t, err, ErrNoDatabase)

	_, err = GetLogsByEventType("robot-1", models.EventGripper, 10)
	assert.ErrorIs(t, err, ErrNoDatabase)

	_, err = GetLogStats("robot-1", 24)
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestLogBuffer_FlushWritesRows(t *testing.T) {
	conn := openTestDB(t)
	lb := newLogBuffer(10, time.Hour)

	for i := 0; i < 3; i++ {
		lb.add(models.RobotLog{EventType: models.EventGripper, RobotID: "robot-1", CreatedAt: time.Now().UTC()})
	}
	lb.Flush()
	assert.Equal(t, 0, lb.Len())

	var count int64
	require.NoError(t, conn.Model(&models.RobotLog{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestLogging_PersistsRobotEvents(t *testing.T) {
	conn := openTestDB(t)
	InitLogging(1000, time.Hour)
	t.Cleanup(StopLogging)

	clock := NewManualClock(testEpoch)
	state := NewRobotState(DefaultRobotLimits, clock, nil)
	previous := state.SessionID()
	state.CloseGripper()

	_, err := state.Initialize(models.Vector3{}, models.Vector3{}, models.GripperOpen)
	require.NoError(t, err)
	session := state.SessionID()

	_, _, err = state.MoveTo(models.Vector3{100, 0, 0}, 50)
	require.NoError(t, err)
	_, _, err = state.MoveTo(models.Vector3{0, 0, 5000}, 50)
	require.ErrorIs(t, err, ErrPositionOutOfBounds)
	clock.Advance(2 * time.Second)
	_, _, err = state.MoveTo(models.Vector3{100, 0, 0}, 50)
	require.NoError(t, err)
	state.OpenGripper()

	StopLogging()

	var total int64
	require.NoError(t, conn.Model(&models.RobotLog{}).Count(&total).Error)
	assert.Equal(t, int64(6), total)

	recent, err := GetRecentLogs(session, 100)
	require.NoError(t, err)
	var events []string
	for _, entry := range recent {
		assert.Equal(t, session, entry.RobotID)
		events = append(events, entry.EventType)
	}
	assert.ElementsMatch(t, []string{
		models.EventInitialize,
		models.EventMotionStart,
		models.EventMoveRejected,
		models.EventMotionComplete,
		models.EventGripper,
	}, events)

	limited, err := GetRecentLogs(session, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	gripper, err := GetLogsByEventType(session, models.EventGripper, 10)
	require.NoError(t, err)
	require.Len(t, gripper, 1)
	assert.Equal(t, "OPEN", gripper[0].Gripper)

	gripper, err = GetLogsByEventType(previous, models.EventGripper, 10)
	require.NoError(t, err)
	require.Len(t, gripper, 1)
	assert.Equal(t, "CLOSED", gripper[0].Gripper)

	rejected, err := GetLogsByEventType(session, models.EventMoveRejected, 10)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, 5000.0, rejected[0].TargetZ)
	assert.Contains(t, rejected[0].ErrMsg, "axis 2")

	complete, err := GetLogsByEventType(session, models.EventMotionComplete, 10)
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, 100.0, complete[0].PositionX)

	now := time.Now()
	inRange, err := GetLogsByTimeRange(session, now.Add(-time.Hour), now.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, inRange, 5)

	future, err := GetLogsByTimeRange(session, now.Add(time.Hour), now.Add(2*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, future)

	stats, err := GetLogStats(session, 24)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats["total_logs"])
	assert.Equal(t, map[string]int64{
		models.EventInitialize:     1,
		models.EventMotionStart:    1,
		models.EventMoveRejected:   1,
		models.EventMotionComplete: 1,
		models.EventGripper:        1,
	}, stats["event_counts"])
}

func TestAddLog_ConcurrentWithStop(t *testing.T) {
	SetDB(nil)
	InitLogging(100000, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				LogGripper("robot-1", models.GripperOpen, models.Vector3{})
			}
		}()
	}

	time.Sleep(time.Millisecond)
	StopLogging()
	wg.Wait()

	logBufferMu.RLock()
	defer logBufferMu.RUnlock()
	assert.Nil(t, logBuffer)
}
