package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/langchou/tesdash/internal/models"
)

// Badge 状态徽标
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"` // green, blue, orange, red, gray
}

// StateBadge 车辆状态对应的徽标
func StateBadge(state string) Badge {
	switch state {
	case models.StateOnline:
		return Badge{Label: "Online", Color: "green"}
	case models.StateCharging:
		return Badge{Label: "Charging", Color: "green"}
	case models.StateDriving:
		return Badge{Label: "Driving", Color: "blue"}
	case models.StateUpdating:
		return Badge{Label: "Updating", Color: "orange"}
	case models.StateAsleep, models.StateSuspended:
		return Badge{Label: "Asleep", Color: "gray"}
	case models.StateOffline:
		return Badge{Label: "Offline", Color: "red"}
	case "":
		return Badge{Label: "Status unknown", Color: "gray"}
	}
	return Badge{Label: strings.ToUpper(state[:1]) + state[1:], Color: "gray"}
}

// StatusView 仪表盘展示数据
type StatusView struct {
	Badge         Badge  `json:"badge"`
	BatteryLevel  string `json:"battery_level"` // %
	Range         string `json:"range"`
	Charging      bool   `json:"charging"`
	ChargerPower  string `json:"charger_power"`
	TimeRemaining string `json:"time_remaining"`
	EnergyAdded   string `json:"energy_added"`
	ChargeLimit   string `json:"charge_limit"` // %
	InsideTemp    string `json:"inside_temp"`
	OutsideTemp   string `json:"outside_temp"`
	Odometer      string `json:"odometer"`
	Lock          string `json:"lock"`
	SentryMode    bool   `json:"sentry_mode"`
	Location      string `json:"location"`
}

// Status 生成仪表盘展示数据
func Status(s *models.CarStatus) StatusView {
	lock := "Unlocked"
	if s.CarStatus.Locked {
		lock = "Locked"
	}

	remaining := Placeholder
	if t := s.ChargingDetails.TimeToFullCharge; t != nil && *t > 0 {
		remaining = fmt.Sprintf("%.1f hrs", *t)
	}

	return StatusView{
		Badge:         StateBadge(s.State),
		BatteryLevel:  Int(s.BatteryDetails.BatteryLevel),
		Range:         WithUnit(Float(s.BatteryDetails.IdealBatteryRange, 0), "km"),
		Charging:      s.IsCharging(),
		ChargerPower:  WithUnit(Float(&s.ChargingDetails.ChargerPower, 0), "kW"),
		TimeRemaining: remaining,
		EnergyAdded:   WithUnit(Float(s.ChargingDetails.ChargeEnergyAdded, 1), "kWh"),
		ChargeLimit:   fmt.Sprintf("%d", s.ChargingDetails.ChargeLimitSoc),
		InsideTemp:    WithUnit(Float(s.ClimateDetails.InsideTemp, 1), "°C"),
		OutsideTemp:   WithUnit(Float(s.ClimateDetails.OutsideTemp, 1), "°C"),
		Odometer:      WithUnit(Grouped(s.Odometer), "km"),
		Lock:          lock,
		SentryMode:    s.CarStatus.SentryMode,
		Location:      fmt.Sprintf("%.4f, %.4f", s.CarGeodata.Latitude, s.CarGeodata.Longitude),
	}
}

// DriveSummary 行程摘要
type DriveSummary struct {
	Date         string `json:"date"`
	Title        string `json:"title"`
	Distance     string `json:"distance"`
	Duration     string `json:"duration"`
	EnergyUsed   string `json:"energy_used"`
	Efficiency   string `json:"efficiency"`
	AvgSpeed     string `json:"avg_speed"`
	MaxSpeed     string `json:"max_speed"`
	StartAddress string `json:"start_address"`
	EndAddress   string `json:"end_address"`
}

// Drive 生成行程摘要
func Drive(d *models.Drive, loc *time.Location) DriveSummary {
	start := d.StartDate.In(loc)
	avg := Placeholder
	if d.SpeedAvg != nil {
		avg = fmt.Sprintf("%d", int(math.Round(*d.SpeedAvg)))
	}

	return DriveSummary{
		Date:         start.Format("Monday, January 2, 2006"),
		Title:        start.Format("15:04") + " Trip",
		Distance:     fmt.Sprintf("%.1f km", d.OdometerDetails.OdometerDistance),
		Duration:     Duration(d.DurationMin),
		EnergyUsed:   WithUnit(Float(d.EnergyConsumedNet, 1), "kWh"),
		Efficiency:   WithUnit(Float(d.ConsumptionNet, 0), "Wh/km"),
		AvgSpeed:     WithUnit(avg, "km/h"),
		MaxSpeed:     WithUnit(Float(d.SpeedMax, 0), "km/h"),
		StartAddress: Text(d.StartAddress, UnknownLocation),
		EndAddress:   Text(d.EndAddress, UnknownLocation),
	}
}

// ChargeSummary 充电摘要
type ChargeSummary struct {
	Title       string `json:"title"`
	Time        string `json:"time"`
	Address     string `json:"address"`
	Battery     string `json:"battery"`
	EnergyAdded string `json:"energy_added"`
	EnergyUsed  string `json:"energy_used"`
	Efficiency  string `json:"efficiency"`
	Duration    string `json:"duration"`
	Cost        string `json:"cost"`
	OutsideTemp string `json:"outside_temp"`
	CableType   string `json:"cable_type"`
}

// Charge 生成充电摘要，cable 为空时显示 Unknown
func Charge(c *models.Charge, cable string, loc *time.Location) ChargeSummary {
	cost := Placeholder
	if c.Cost != nil && *c.Cost > 0 {
		cost = fmt.Sprintf("%.2f", *c.Cost)
	}
	temp := Placeholder
	if c.OutsideTempAvg != nil {
		temp = fmt.Sprintf("%d", int(math.Round(*c.OutsideTempAvg)))
	}
	if cable == "" {
		cable = Unknown
	}

	return ChargeSummary{
		Title:       Text(c.Address, Unknown) + " Charge",
		Time:        fmt.Sprintf("%s – %s", c.StartDate.In(loc).Format("15:04"), c.EndDate.In(loc).Format("15:04")),
		Address:     Text(c.Address, UnknownLocation),
		Battery:     fmt.Sprintf("%d%% → %d%%", c.BatteryDetails.StartBatteryLevel, c.BatteryDetails.EndBatteryLevel),
		EnergyAdded: WithUnit(Float(c.ChargeEnergyAdded, 1), "kWh"),
		EnergyUsed:  WithUnit(Float(c.ChargeEnergyUsed, 1), "kWh"),
		Efficiency:  WithUnit(Efficiency(c.ChargeEnergyAdded, c.ChargeEnergyUsed), "%"),
		Duration:    Duration(c.DurationMin),
		Cost:        cost,
		OutsideTemp: WithUnit(temp, "°C"),
		CableType:   cable,
	}
}
