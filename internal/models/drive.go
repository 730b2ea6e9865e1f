package models

import (
	"sort"
	"time"
)

// Drive 行程记录
type Drive struct {
	ID                int64           `json:"drive_id"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	OdometerDetails   OdometerDetails `json:"odometer_details"`
	DurationMin       int             `json:"duration_min"`
	EnergyConsumedNet *float64        `json:"energy_consumed_net"` // kWh
	ConsumptionNet    *float64        `json:"consumption_net"`     // Wh/km
	StartAddress      *string         `json:"start_address"`
	EndAddress        *string         `json:"end_address"`
	SpeedAvg          *float64        `json:"speed_avg"` // km/h
	SpeedMax          *float64        `json:"speed_max"` // km/h
	InsideTempAvg     *float64        `json:"inside_temp_avg"`
	OutsideTempAvg    *float64        `json:"outside_temp_avg"`
}

// OdometerDetails 里程
type OdometerDetails struct {
	OdometerDistance float64 `json:"odometer_distance"` // km
}

// DriveDetail 行程采样点
type DriveDetail struct {
	ID           int64       `json:"detail_id"`
	Date         time.Time   `json:"date"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	Speed        float64     `json:"speed"` // km/h
	Power        float64     `json:"power"` // kW，负值=回收
	Odometer     float64     `json:"odometer"`
	BatteryLevel int         `json:"battery_level"`
	Elevation    *float64    `json:"elevation"` // 海拔 (米)
	ClimateInfo  ClimateInfo `json:"climate_info"`
}

// ClimateInfo 采样点温度
type ClimateInfo struct {
	InsideTemp  *float64 `json:"inside_temp"`
	OutsideTemp *float64 `json:"outside_temp"`
}

// DriveWithDetails 行程及其轨迹
type DriveWithDetails struct {
	Drive
	DriveDetails []DriveDetail `json:"drive_details"`
}

// Validate 校验行程摘要
func (d *Drive) Validate() error {
	if d.EndDate.Before(d.StartDate) {
		return invalid("drive", d.ID, "end_date", "before start_date")
	}
	if d.DurationMin < 0 {
		return invalid("drive", d.ID, "duration_min", "negative")
	}
	if d.OdometerDetails.OdometerDistance < 0 {
		return invalid("drive", d.ID, "odometer_details.odometer_distance", "negative")
	}
	return nil
}

// Validate 校验行程详情，并将采样点按时间升序排列
func (d *DriveWithDetails) Validate() error {
	if err := d.Drive.Validate(); err != nil {
		return err
	}
	for i := range d.DriveDetails {
		lvl := d.DriveDetails[i].BatteryLevel
		if err := checkBatteryLevel("drive_detail", "battery_level", &lvl); err != nil {
			return err
		}
	}
	sort.SliceStable(d.DriveDetails, func(i, j int) bool {
		return d.DriveDetails[i].Date.Before(d.DriveDetails[j].Date)
	})
	return nil
}

// ValidateDrives 校验行程列表 (ID 唯一)
func ValidateDrives(drives []Drive) error {
	seen := make(map[int64]struct{}, len(drives))
	for i := range drives {
		if _, ok := seen[drives[i].ID]; ok {
			return invalid("drive", drives[i].ID, "drive_id", "duplicate")
		}
		seen[drives[i].ID] = struct{}{}
		if err := drives[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
