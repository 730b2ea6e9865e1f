package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/langchou/tesdash/internal/config"
	"github.com/langchou/tesdash/internal/format"
	"github.com/langchou/tesdash/internal/models"
	"github.com/langchou/tesdash/internal/state"
)

// ErrNoCars TeslaMate 中没有任何车辆
var ErrNoCars = errors.New("no cars available")

var (
	statusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesdash_status_polls_total",
		Help: "Status polls by result.",
	}, []string{"result"})

	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesdash_state_transitions_total",
		Help: "Observed vehicle state transitions by event.",
	}, []string{"event"})
)

// API TeslaMate API 的只读视图，*teslamate.Client 实现了该接口
type API interface {
	ListCars(ctx context.Context) ([]models.Car, error)
	GetCarStatus(ctx context.Context, carID int64) (*models.CarStatus, error)
	ListDrives(ctx context.Context, carID int64) ([]models.Drive, error)
	GetDrive(ctx context.Context, carID, driveID int64) (*models.DriveWithDetails, error)
	ListCharges(ctx context.Context, carID int64) ([]models.Charge, error)
	GetCharge(ctx context.Context, carID, chargeID int64) (*models.ChargeWithDetails, error)
	WakeUp(ctx context.Context, carID int64) (json.RawMessage, error)
	TestConnection(ctx context.Context) error
}

type poller struct {
	cancel  context.CancelFunc
	trigger chan struct{}
}

// DashboardService 缓存车辆列表和最新状态，并按车辆轮询状态
type DashboardService struct {
	cfg          *config.Config
	api          API
	logger       *zap.Logger
	stateManager *state.Manager
	now          func() time.Time
	loc          *time.Location

	mu          sync.RWMutex
	cars        []models.Car
	statuses    map[int64]*models.CarStatus
	pollers     map[int64]*poller
	subscribers []chan *state.VehicleState
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewDashboardService 创建仪表盘服务，loc 为日期分组的时区，nil 时使用本地时区
func NewDashboardService(cfg *config.Config, api API, logger *zap.Logger, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	svc := &DashboardService{
		cfg:      cfg,
		api:      api,
		logger:   logger,
		now:      time.Now,
		loc:      loc,
		statuses: make(map[int64]*models.CarStatus),
		pollers:  make(map[int64]*poller),
	}
	svc.stateManager = state.NewManager(svc.onStateChange)
	return svc
}

// Start 启动轮询，重复调用无副作用
func (s *DashboardService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	runCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Starting dashboard service", zap.Duration("poll_interval", s.cfg.StatusPollInterval))
	go s.syncLoop(runCtx)
}

// Stop 停止所有轮询并等待退出
func (s *DashboardService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.pollers = make(map[int64]*poller)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Dashboard service stopped")
}

// syncLoop 启动时拉取车辆列表，失败按退避重试直到成功
func (s *DashboardService) syncLoop(ctx context.Context) {
	defer s.wg.Done()

	op := func() error {
		_, err := s.SyncCars(ctx)
		return err
	}
	notify := func(err error, next time.Duration) {
		s.logger.Warn("Failed to sync cars, retrying", zap.Error(err), zap.Duration("retry_in", next))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify); err != nil && ctx.Err() == nil {
		s.logger.Error("Giving up syncing cars", zap.Error(err))
	}
}

func (s *DashboardService) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.StatusPollInterval
	b.MaxInterval = s.cfg.PollMaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// SyncCars 重新拉取车辆列表，运行中时为新车辆启动轮询并停止已消失车辆的轮询
func (s *DashboardService) SyncCars(ctx context.Context) ([]models.Car, error) {
	cars, err := s.api.ListCars(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cars = cars
	if !s.running {
		return cars, nil
	}

	seen := make(map[int64]bool, len(cars))
	for _, car := range cars {
		seen[car.ID] = true
		if _, ok := s.pollers[car.ID]; ok {
			continue
		}
		pctx, cancel := context.WithCancel(s.ctx)
		p := &poller{cancel: cancel, trigger: make(chan struct{}, 1)}
		s.pollers[car.ID] = p
		s.wg.Add(1)
		go s.pollLoop(pctx, car.ID, p.trigger)
		s.logger.Debug("Started status poller", zap.Int64("car_id", car.ID), zap.String("name", car.Name))
	}
	for carID, p := range s.pollers {
		if !seen[carID] {
			p.cancel()
			delete(s.pollers, carID)
			delete(s.statuses, carID)
		}
	}
	return cars, nil
}

// pollLoop 单车轮询，成功后按固定间隔，失败后按指数退避
func (s *DashboardService) pollLoop(ctx context.Context, carID int64, trigger <-chan struct{}) {
	defer s.wg.Done()

	b := s.newBackOff()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		delay := s.cfg.StatusPollInterval
		if _, err := s.pollStatus(ctx, carID); err != nil {
			if ctx.Err() != nil {
				return
			}
			delay = b.NextBackOff()
			s.logger.Warn("Failed to poll status",
				zap.Int64("car_id", carID),
				zap.Error(err),
				zap.Duration("retry_in", delay))
		} else {
			b.Reset()
		}
		timer.Reset(delay)
	}
}

// pollStatus 拉取最新状态，更新缓存与状态机并通知订阅者
func (s *DashboardService) pollStatus(ctx context.Context, carID int64) (*models.CarStatus, error) {
	status, err := s.api.GetCarStatus(ctx, carID)
	if err != nil {
		statusPolls.WithLabelValues("error").Inc()
		return nil, err
	}
	statusPolls.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.statuses[carID] = status
	s.mu.Unlock()

	machine := s.stateManager.GetOrCreate(carID, status.State)
	if _, err := machine.Observe(status); err != nil {
		s.logger.Warn("Failed to record state", zap.Int64("car_id", carID), zap.Error(err))
	}
	s.notifySubscribers(machine.GetState())
	return status, nil
}

// onStateChange 状态变化回调
func (s *DashboardService) onStateChange(t state.Transition) {
	stateTransitions.WithLabelValues(t.Event).Inc()
	s.logger.Info("Vehicle state changed",
		zap.Int64("car_id", t.CarID),
		zap.String("event", t.Event),
		zap.String("from", t.From),
		zap.String("to", t.To))
}

// Subscribe 订阅状态更新
func (s *DashboardService) Subscribe() <-chan *state.VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *state.VehicleState, 10)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// notifySubscribers 通知订阅者，跳过慢消费者
func (s *DashboardService) notifySubscribers(vs *state.VehicleState) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- vs:
		default:
		}
	}
}

// Cars 车辆列表，优先使用缓存
func (s *DashboardService) Cars(ctx context.Context) ([]models.Car, error) {
	s.mu.RLock()
	cars := s.cars
	s.mu.RUnlock()
	if cars != nil {
		return cars, nil
	}
	return s.SyncCars(ctx)
}

// DefaultCar 第一辆车
func (s *DashboardService) DefaultCar(ctx context.Context) (*models.Car, error) {
	cars, err := s.Cars(ctx)
	if err != nil {
		return nil, err
	}
	if len(cars) == 0 {
		return nil, ErrNoCars
	}
	car := cars[0]
	return &car, nil
}

// GetStatus 返回缓存状态；未缓存或 refresh 时实时拉取
func (s *DashboardService) GetStatus(ctx context.Context, carID int64, refresh bool) (*models.CarStatus, error) {
	if !refresh {
		s.mu.RLock()
		status, ok := s.statuses[carID]
		s.mu.RUnlock()
		if ok {
			return status, nil
		}
	}
	return s.pollStatus(ctx, carID)
}

// GetState 状态机记录的车辆状态
func (s *DashboardService) GetState(carID int64) (*state.VehicleState, bool) {
	machine, ok := s.stateManager.Get(carID)
	if !ok {
		return nil, false
	}
	return machine.GetState(), true
}

// GetAllStates 所有车辆的状态（用于 WebSocket 初始数据）
func (s *DashboardService) GetAllStates() map[int64]*state.VehicleState {
	return s.stateManager.GetAllStates()
}

// WakeUp 唤醒车辆，成功后使缓存状态失效并立即重新轮询
func (s *DashboardService) WakeUp(ctx context.Context, carID int64) (json.RawMessage, error) {
	raw, err := s.api.WakeUp(ctx, carID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.statuses, carID)
	p := s.pollers[carID]
	s.mu.Unlock()

	if p != nil {
		select {
		case p.trigger <- struct{}{}:
		default:
		}
	}
	s.logger.Info("Wake up sent", zap.Int64("car_id", carID))
	return raw, nil
}

// Reload 配置变更后清空缓存并重新同步车辆
func (s *DashboardService) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.cars = nil
	s.statuses = make(map[int64]*models.CarStatus)
	s.mu.Unlock()

	_, err := s.SyncCars(ctx)
	return err
}

// Location 日期分组使用的时区
func (s *DashboardService) Location() *time.Location {
	return s.loc
}

// Drives 按日期分组的行程列表
func (s *DashboardService) Drives(ctx context.Context, carID int64) ([]format.Section[models.Drive], error) {
	drives, err := s.api.ListDrives(ctx, carID)
	if err != nil {
		return nil, err
	}
	return format.GroupByDay(drives, func(d models.Drive) time.Time { return d.StartDate }, s.now().In(s.loc)), nil
}

// Drive 行程详情
func (s *DashboardService) Drive(ctx context.Context, carID, driveID int64) (*models.DriveWithDetails, error) {
	return s.api.GetDrive(ctx, carID, driveID)
}

// Charges 按日期分组的充电列表
func (s *DashboardService) Charges(ctx context.Context, carID int64) ([]format.Section[models.Charge], error) {
	charges, err := s.api.ListCharges(ctx, carID)
	if err != nil {
		return nil, err
	}
	return format.GroupByDay(charges, func(c models.Charge) time.Time { return c.StartDate }, s.now().In(s.loc)), nil
}

// Charge 充电详情
func (s *DashboardService) Charge(ctx context.Context, carID, chargeID int64) (*models.ChargeWithDetails, error) {
	return s.api.GetCharge(ctx, carID, chargeID)
}

// TestConnection 检查当前配置能否访问 TeslaMate API
func (s *DashboardService) TestConnection(ctx context.Context) error {
	return s.api.TestConnection(ctx)
}
