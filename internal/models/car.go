package models

// 车辆状态常量 (TeslaMate API 的 state 字段)
const (
	StateOnline    = "online"
	StateAsleep    = "asleep"
	StateOffline   = "offline"
	StateDriving   = "driving"
	StateCharging  = "charging"
	StateUpdating  = "updating"
	StateSuspended = "suspended"
)

// Car 车辆信息
type Car struct {
	ID   int64  `json:"car_id"`
	Name string `json:"name"`
}

// CarStatus 车辆实时状态快照
type CarStatus struct {
	State           string          `json:"state"`
	Odometer        *float64        `json:"odometer"` // km
	CarStatus       LockStatus      `json:"car_status"`
	CarGeodata      Geodata         `json:"car_geodata"`
	ClimateDetails  ClimateDetails  `json:"climate_details"`
	BatteryDetails  BatteryDetails  `json:"battery_details"`
	ChargingDetails ChargingDetails `json:"charging_details"`
}

// LockStatus 锁车与哨兵状态
type LockStatus struct {
	Locked     bool `json:"locked"`
	SentryMode bool `json:"sentry_mode"`
}

// Geodata 车辆位置
type Geodata struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClimateDetails 温度
type ClimateDetails struct {
	InsideTemp  *float64 `json:"inside_temp"`  // 摄氏度
	OutsideTemp *float64 `json:"outside_temp"` // 摄氏度
}

// BatteryDetails 电池
type BatteryDetails struct {
	BatteryLevel       *int     `json:"battery_level"`       // 0-100
	IdealBatteryRange  *float64 `json:"ideal_battery_range"` // km
	UsableBatteryLevel *int     `json:"usable_battery_level"`
}

// ChargingDetails 充电状态
type ChargingDetails struct {
	ChargingState        string   `json:"charging_state"`
	ChargeEnergyAdded    *float64 `json:"charge_energy_added"` // kWh
	ChargeLimitSoc       int      `json:"charge_limit_soc"`
	TimeToFullCharge     *float64 `json:"time_to_full_charge"` // 小时
	ChargerPower         float64  `json:"charger_power"`       // kW
	ChargerVoltage       int      `json:"charger_voltage"`
	ChargerActualCurrent int      `json:"charger_actual_current"`
	ChargerPhases        *int     `json:"charger_phases"`
}

// IsCharging 是否正在充电
func (s *CarStatus) IsCharging() bool {
	return s.ChargingDetails.ChargingState == "Charging" || s.ChargingDetails.ChargingState == "charging" || s.State == StateCharging
}

// Validate 校验状态数据
func (s *CarStatus) Validate() error {
	if err := checkBatteryLevel("status", "battery_details.battery_level", s.BatteryDetails.BatteryLevel); err != nil {
		return err
	}
	return checkBatteryLevel("status", "battery_details.usable_battery_level", s.BatteryDetails.UsableBatteryLevel)
}
