package models

import (
	"sort"
	"time"
)

// Charge 充电记录
type Charge struct {
	ID                int64                `json:"charge_id"`
	StartDate         time.Time            `json:"start_date"`
	EndDate           time.Time            `json:"end_date"`
	Address           *string              `json:"address"`
	BatteryDetails    ChargeBatteryDetails `json:"battery_details"`
	ChargeEnergyAdded *float64             `json:"charge_energy_added"` // kWh
	ChargeEnergyUsed  *float64             `json:"charge_energy_used"`  // kWh
	DurationMin       int                  `json:"duration_min"`
	Cost              *float64             `json:"cost"`
	OutsideTempAvg    *float64             `json:"outside_temp_avg"`
}

// ChargeBatteryDetails 充电前后电量
type ChargeBatteryDetails struct {
	StartBatteryLevel int `json:"start_battery_level"`
	EndBatteryLevel   int `json:"end_battery_level"`
}

// ChargeDetail 充电采样点
type ChargeDetail struct {
	ID              int64          `json:"detail_id"`
	Date            time.Time      `json:"date"`
	BatteryLevel    int            `json:"battery_level"`
	BatteryInfo     BatteryInfo    `json:"battery_info"`
	ChargerDetails  ChargerDetails `json:"charger_details"`
	ConnChargeCable string         `json:"conn_charge_cable"`
}

// BatteryInfo 采样点续航
type BatteryInfo struct {
	IdealBatteryRange *float64 `json:"ideal_battery_range"` // km
}

// ChargerDetails 充电桩参数
type ChargerDetails struct {
	ChargerPower         float64 `json:"charger_power"` // kW
	ChargerVoltage       int     `json:"charger_voltage"`
	ChargerActualCurrent int     `json:"charger_actual_current"`
}

// ChargeWithDetails 充电记录及其曲线
type ChargeWithDetails struct {
	Charge
	ChargeDetails []ChargeDetail `json:"charge_details"`
}

// Validate 校验充电摘要
func (c *Charge) Validate() error {
	if c.EndDate.Before(c.StartDate) {
		return invalid("charge", c.ID, "end_date", "before start_date")
	}
	if c.DurationMin < 0 {
		return invalid("charge", c.ID, "duration_min", "negative")
	}
	start, end := c.BatteryDetails.StartBatteryLevel, c.BatteryDetails.EndBatteryLevel
	if err := checkBatteryLevel("charge", "battery_details.start_battery_level", &start); err != nil {
		return err
	}
	return checkBatteryLevel("charge", "battery_details.end_battery_level", &end)
}

// Validate 校验充电详情，并将采样点按时间升序排列
func (c *ChargeWithDetails) Validate() error {
	if err := c.Charge.Validate(); err != nil {
		return err
	}
	for i := range c.ChargeDetails {
		lvl := c.ChargeDetails[i].BatteryLevel
		if err := checkBatteryLevel("charge_detail", "battery_level", &lvl); err != nil {
			return err
		}
	}
	sort.SliceStable(c.ChargeDetails, func(i, j int) bool {
		return c.ChargeDetails[i].Date.Before(c.ChargeDetails[j].Date)
	})
	return nil
}

// CableType 充电线类型，取第一个采样点
func (c *ChargeWithDetails) CableType() string {
	if len(c.ChargeDetails) == 0 {
		return ""
	}
	return c.ChargeDetails[0].ConnChargeCable
}

// ValidateCharges 校验充电列表 (ID 唯一)
func ValidateCharges(charges []Charge) error {
	seen := make(map[int64]struct{}, len(charges))
	for i := range charges {
		if _, ok := seen[charges[i].ID]; ok {
			return invalid("charge", charges[i].ID, "charge_id", "duplicate")
		}
		seen[charges[i].ID] = struct{}{}
		if err := charges[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
