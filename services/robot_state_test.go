package services

import (
	"math"
	"pickplace-backend/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotState_Initialize(t *testing.T) {
	clock := NewManualClock(testEpoch)
	rec := &messageRecorder{}
	state := NewRobotState(models.Vector3{500, 500, 500}, clock, rec.record)

	firstSession := state.SessionID()
	require.NotEmpty(t, firstSession)

	snap, err := state.Initialize(models.Vector3{10, 20, 30}, models.Vector3{-5, 0, 0}, models.GripperClosed)
	require.NoError(t, err)

	assert.NotEqual(t, firstSession, snap.SessionID)
	assert.Equal(t, snap.SessionID, state.SessionID())
	assert.Equal(t, models.Vector3{10, 20, 30}, snap.CurrentPosition)
	assert.Equal(t, models.Vector3{-5, 0, 0}, snap.HomePosition)
	assert.Equal(t, models.GripperClosed, snap.GripperState)
	assert.Equal(t, models.Vector3{500, 500, 500}, snap.RobotLimits)
	assert.False(t, snap.InMotion)
	assert.Nil(t, snap.Target)

	require.Len(t, rec.ofType(models.MessageTypeStatus), 1)
}

func TestRobotState_InitializeDiscardsMotion(t *testing.T) {
	clock := NewManualClock(testEpoch)
	state := NewRobotState(DefaultRobotLimits, clock, nil)

	_, _, err := state.MoveTo(models.Vector3{100, 0, 0}, 50)
	require.NoError(t, err)
	require.True(t, state.Snapshot().InMotion)

	snap, err := state.Initialize(models.Vector3{}, models.Vector3{}, models.GripperOpen)
	require.NoError(t, err)
	assert.False(t, snap.InMotion)
	assert.Equal(t, models.Vector3{}, snap.AxisSpeed)
}

func TestRobotState_MoveBroadcastsPosition(t *testing.T) {
	clock := NewManualClock(testEpoch)
	rec := &messageRecorder{}
	state := NewRobotState(DefaultRobotLimits, clock, rec.record)

	_, _, err := state.MoveTo(models.Vector3{0, 100, 0}, 100)
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	pos, speed, err := state.MoveTo(models.Vector3{0, 100, 0}, 100)
	require.NoError(t, err)
	assert.Equal(t, models.Vector3{0, 100, 0}, pos)
	assert.Equal(t, models.Vector3{}, speed)

	msgs := rec.ofType(models.MessageTypePosition)
	require.Len(t, msgs, 2)
	first := msgs[0].Data.(models.PositionData)
	assert.True(t, first.InMotion)
	assert.Equal(t, models.Vector3{0, 100, 0}, first.AxisSpeed)
	last := msgs[1].Data.(models.PositionData)
	assert.False(t, last.InMotion)
	assert.Equal(t, state.SessionID(), last.SessionID)
}

func TestRobotState_RejectedMoveDoesNotBroadcast(t *testing.T) {
	rec := &messageRecorder{}
	state := NewRobotState(DefaultRobotLimits, NewManualClock(testEpoch), rec.record)

	_, _, err := state.MoveTo(models.Vector3{0, 0, 0}, 150)
	assert.ErrorIs(t, err, ErrSpeedOutOfRange)
	assert.Empty(t, rec.ofType(models.MessageTypePosition))
}

func TestRobotState_MoveHome(t *testing.T) {
	clock := NewManualClock(testEpoch)
	state := NewRobotState(DefaultRobotLimits, clock, nil)
	_, err := state.Initialize(models.Vector3{200, 0, 0}, models.Vector3{100, 0, 0}, models.GripperOpen)
	require.NoError(t, err)

	_, speed, err := state.MoveHome(50)
	require.NoError(t, err)
	assert.Equal(t, models.Vector3{-50, 0, 0}, speed)

	clock.Advance(2 * time.Second)
	pos, _, err := state.MoveHome(50)
	require.NoError(t, err)
	assert.Equal(t, models.Vector3{100, 0, 0}, pos)
}

func TestRobotState_Gripper(t *testing.T) {
	rec := &messageRecorder{}
	state := NewRobotState(DefaultRobotLimits, NewManualClock(testEpoch), rec.record)

	assert.Equal(t, models.GripperClosed, state.CloseGripper())
	assert.Equal(t, models.GripperClosed, state.Snapshot().GripperState)
	assert.Equal(t, models.GripperOpen, state.OpenGripper())

	msgs := rec.ofType(models.MessageTypeGripper)
	require.Len(t, msgs, 2)
	assert.Equal(t, "CLOSED", msgs[0].Data.(models.GripperData).Label)
}

func TestRobotState_NilClockUsesRealClock(t *testing.T) {
	state := NewRobotState(DefaultRobotLimits, nil, nil)
	assert.IsType(t, RealClock{}, state.clock)
}

func TestRobotState_InitializeRejectsOutOfBounds(t *testing.T) {
	tests := []struct {
		name    string
		initial models.Vector3
		home    models.Vector3
		field   string
	}{
		{"initial past limit", models.Vector3{5000, 0, 0}, models.Vector3{}, "initial_position"},
		{"home past limit", models.Vector3{}, models.Vector3{0, -9000, 0}, "home_position"},
		{"initial NaN", models.Vector3{0, 0, math.NaN()}, models.Vector3{}, "initial_position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &messageRecorder{}
			state := NewRobotState(DefaultRobotLimits, NewManualClock(testEpoch), rec.record)
			before := state.Snapshot()

			_, err := state.Initialize(tt.initial, tt.home, models.GripperOpen)
			require.ErrorIs(t, err, ErrPositionOutOfBounds)
			assert.Contains(t, err.Error(), tt.field)

			assert.Equal(t, before, state.Snapshot())
			assert.Empty(t, rec.ofType(models.MessageTypeStatus))
		})
	}
}

func TestRobotState_InitializeAcceptsLimits(t *testing.T) {
	state := NewRobotState(DefaultRobotLimits, NewManualClock(testEpoch), nil)

	snap, err := state.Initialize(models.Vector3{1000, -1000, 0}, models.Vector3{-1000, 0, 1000}, models.GripperOpen)
	require.NoError(t, err)
	assert.Equal(t, models.Vector3{1000, -1000, 0}, snap.CurrentPosition)
}

func TestRobotState_StaleSessionCommandsAreRejected(t *testing.T) {
	clock := NewManualClock(testEpoch)
	state := NewRobotState(DefaultRobotLimits, clock, nil)
	stale := state.SessionID()

	_, err := state.Initialize(models.Vector3{}, models.Vector3{0, 0, 100}, models.GripperOpen)
	require.NoError(t, err)

	_, speed, err := state.MoveToInSession(stale, models.Vector3{100, 0, 0}, 50)
	assert.ErrorIs(t, err, ErrSessionChanged)
	assert.Equal(t, models.Vector3{}, speed)

	_, _, err = state.MoveHomeInSession(stale, 50)
	assert.ErrorIs(t, err, ErrSessionChanged)

	gripper, err := state.SetGripperInSession(stale, true)
	assert.ErrorIs(t, err, ErrSessionChanged)
	assert.Equal(t, models.GripperOpen, gripper)
	assert.False(t, state.Snapshot().InMotion)

	_, speed, err = state.MoveToInSession(state.SessionID(), models.Vector3{100, 0, 0}, 50)
	require.NoError(t, err)
	assert.Equal(t, models.Vector3{50, 0, 0}, speed)
}
