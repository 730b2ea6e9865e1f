package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/tesdash/internal/models"
)

func status(state string) *models.CarStatus {
	return &models.CarStatus{State: state}
}

func TestMachineObserve(t *testing.T) {
	var got []Transition
	m := NewMachine(1, models.StateAsleep, func(tr Transition) { got = append(got, tr) })

	changed, err := m.Observe(status(models.StateAsleep))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = m.Observe(status(models.StateOnline))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StateOnline, m.CurrentState())

	_, err = m.Observe(status(models.StateCharging))
	require.NoError(t, err)

	_, err = m.Observe(status(models.StateOnline))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, EventWakeUp, got[0].Event)
	assert.Equal(t, EventStartCharging, got[1].Event)
	assert.Equal(t, EventStopCharging, got[2].Event)
	assert.Equal(t, models.StateCharging, got[2].From)
	assert.Equal(t, int64(1), got[2].CarID)
}

func TestMachineJump(t *testing.T) {
	var got []Transition
	m := NewMachine(2, models.StateAsleep, func(tr Transition) { got = append(got, tr) })

	// 两次轮询之间从休眠直接进入行驶
	changed, err := m.Observe(status(models.StateDriving))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StateDriving, m.CurrentState())

	require.Len(t, got, 1)
	assert.Equal(t, EventJump, got[0].Event)
	assert.True(t, m.CanTransition(EventStopDriving))
	assert.False(t, m.CanTransition(EventStartCharging))
}

func TestMachineKeepsLatestStatus(t *testing.T) {
	m := NewMachine(3, "", nil)
	assert.Equal(t, models.StateOffline, m.CurrentState())

	level := 55
	s := &models.CarStatus{State: "", BatteryDetails: models.BatteryDetails{BatteryLevel: &level}}
	changed, err := m.Observe(s)
	require.NoError(t, err)
	assert.False(t, changed, "empty state does not move the machine")

	vs := m.GetState()
	require.NotNil(t, vs.Status)
	assert.Equal(t, 55, *vs.Status.BatteryDetails.BatteryLevel)
	assert.Equal(t, models.StateOffline, vs.CurrentState)
}

func TestManager(t *testing.T) {
	mgr := NewManager(nil)
	a := mgr.GetOrCreate(1, models.StateOnline)
	b := mgr.GetOrCreate(1, models.StateAsleep)
	assert.Same(t, a, b)

	_, ok := mgr.Get(2)
	assert.False(t, ok)

	mgr.GetOrCreate(2, models.StateAsleep)
	states := mgr.GetAllStates()
	require.Len(t, states, 2)
	assert.Equal(t, models.StateOnline, states[1].CurrentState)
	assert.Equal(t, models.StateAsleep, states[2].CurrentState)
}
