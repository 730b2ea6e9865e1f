package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/langchou/tesdash/internal/models"
)

// 事件常量
const (
	EventWakeUp        = "wake_up"
	EventFallAsleep    = "fall_asleep"
	EventGoOffline     = "go_offline"
	EventSuspend       = "suspend"
	EventStartDriving  = "start_driving"
	EventStopDriving   = "stop_driving"
	EventStartCharging = "start_charging"
	EventStopCharging  = "stop_charging"
	EventStartUpdating = "start_updating"
	EventStopUpdating  = "stop_updating"

	// EventJump 轮询间隔内发生了无法用单个事件描述的变化
	EventJump = "jump"
)

// Transition 一次状态变化
type Transition struct {
	CarID int64     `json:"car_id"`
	Event string    `json:"event"`
	From  string    `json:"from"`
	To    string    `json:"to"`
	At    time.Time `json:"at"`
}

// VehicleState 车辆状态
type VehicleState struct {
	CarID        int64             `json:"car_id"`
	CurrentState string            `json:"state"`
	Since        time.Time         `json:"since"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Status       *models.CarStatus `json:"status,omitempty"`
}

var events = fsm.Events{
	{Name: EventWakeUp, Src: []string{models.StateOffline, models.StateAsleep, models.StateSuspended}, Dst: models.StateOnline},
	{Name: EventFallAsleep, Src: []string{models.StateOnline, models.StateSuspended}, Dst: models.StateAsleep},
	{Name: EventGoOffline, Src: []string{models.StateOnline, models.StateAsleep, models.StateSuspended}, Dst: models.StateOffline},
	{Name: EventSuspend, Src: []string{models.StateOnline}, Dst: models.StateSuspended},
	{Name: EventStartDriving, Src: []string{models.StateOnline}, Dst: models.StateDriving},
	{Name: EventStopDriving, Src: []string{models.StateDriving}, Dst: models.StateOnline},
	{Name: EventStartCharging, Src: []string{models.StateOnline}, Dst: models.StateCharging},
	{Name: EventStopCharging, Src: []string{models.StateCharging}, Dst: models.StateOnline},
	{Name: EventStartUpdating, Src: []string{models.StateOnline}, Dst: models.StateUpdating},
	{Name: EventStopUpdating, Src: []string{models.StateUpdating}, Dst: models.StateOnline},
}

// Machine 车辆状态机
// onStateChange 在持锁时调用，回调内不能再访问同一个 Machine
type Machine struct {
	mu            sync.RWMutex
	carID         int64
	fsm           *fsm.FSM
	state         *VehicleState
	onStateChange func(Transition)
	now           func() time.Time
}

// NewMachine 创建状态机
func NewMachine(carID int64, initialState string, onStateChange func(Transition)) *Machine {
	if initialState == "" {
		initialState = models.StateOffline
	}

	m := &Machine{
		carID:         carID,
		onStateChange: onStateChange,
		now:           time.Now,
	}
	m.state = &VehicleState{
		CarID:        carID,
		CurrentState: initialState,
		Since:        m.now(),
	}

	m.fsm = fsm.NewFSM(
		initialState,
		events,
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				m.notify(e.Event, e.Src, e.Dst)
			},
		},
	)

	return m
}

func (m *Machine) notify(event, from, to string) {
	if m.onStateChange != nil && from != to {
		m.onStateChange(Transition{CarID: m.carID, Event: event, From: from, To: to, At: m.now()})
	}
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetState 获取完整状态
func (m *Machine) GetState() *VehicleState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// 返回副本
	stateCopy := *m.state
	stateCopy.CurrentState = m.fsm.Current()
	return &stateCopy
}

// Observe 记录一次轮询结果，返回是否发生了状态变化
func (m *Machine) Observe(status *models.CarStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Status = status
	m.state.UpdatedAt = m.now()

	target := status.State
	from := m.fsm.Current()
	if target == "" || target == from {
		return false, nil
	}

	if event, ok := eventFor(from, target); ok {
		if err := m.fsm.Event(context.Background(), event); err != nil {
			return false, fmt.Errorf("trigger event %s: %w", event, err)
		}
	} else {
		m.fsm.SetState(target)
		m.notify(EventJump, from, target)
	}

	m.state.CurrentState = m.fsm.Current()
	m.state.Since = m.now()
	return true, nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// eventFor 查找 from -> to 对应的事件
func eventFor(from, to string) (string, bool) {
	for _, e := range events {
		if e.Dst != to {
			continue
		}
		for _, src := range e.Src {
			if src == from {
				return e.Name, true
			}
		}
	}
	return "", false
}

// Manager 状态机管理器
type Manager struct {
	mu       sync.RWMutex
	machines map[int64]*Machine
	onChange func(Transition)
}

// NewManager 创建管理器
func NewManager(onChange func(Transition)) *Manager {
	return &Manager{
		machines: make(map[int64]*Machine),
		onChange: onChange,
	}
}

// GetOrCreate 获取或创建状态机
func (m *Manager) GetOrCreate(carID int64, initialState string) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[carID]; ok {
		return machine
	}

	machine := NewMachine(carID, initialState, m.onChange)
	m.machines[carID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(carID int64) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[carID]
	return machine, ok
}

// GetAllStates 获取所有车辆状态
func (m *Manager) GetAllStates() map[int64]*VehicleState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[int64]*VehicleState)
	for carID, machine := range m.machines {
		states[carID] = machine.GetState()
	}
	return states
}
