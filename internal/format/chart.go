package format

import (
	"time"

	"github.com/langchou/tesdash/internal/models"
)

// 图表采样上限
const (
	DriveChartPoints  = 20
	ChargeChartPoints = 25
	ChartAxisLabels   = 4
)

// Series 一条图表曲线
type Series struct {
	Title  string    `json:"title"`
	Unit   string    `json:"unit"`
	Points []float64 `json:"points"`
	Labels []string  `json:"labels,omitempty"`
}

// Downsample 每隔 ceil(n/max) 个点取一个
func Downsample[T any](data []T, max int) []T {
	if max <= 0 || len(data) <= max {
		return data
	}
	step := (len(data) + max - 1) / max
	out := make([]T, 0, max)
	for i := 0; i < len(data); i += step {
		out = append(out, data[i])
	}
	return out
}

// AxisLabels 在 n 个等距位置及最后一个点上放置 HH:MM 标签，其余为空
func AxisLabels(dates []time.Time, n int, loc *time.Location) []string {
	if len(dates) == 0 {
		return nil
	}
	step := 1
	if n > 1 {
		if s := (len(dates) - 1) / (n - 1); s > 1 {
			step = s
		}
	}

	labels := make([]string, len(dates))
	for i, d := range dates {
		if i%step == 0 || i == len(dates)-1 {
			labels[i] = d.In(loc).Format("15:04")
		}
	}
	return labels
}

func appendSeries(out []Series, s Series) []Series {
	if len(s.Points) < 2 {
		return out
	}
	return append(out, s)
}

// DriveCharts 行程曲线：速度、功率、海拔、电量、车内温度
func DriveCharts(details []models.DriveDetail) []Series {
	var speed, power, elevation, battery, inside []float64
	for _, d := range details {
		speed = append(speed, d.Speed)
		power = append(power, d.Power)
		battery = append(battery, float64(d.BatteryLevel))
		if d.Elevation != nil {
			elevation = append(elevation, *d.Elevation)
		}
		if d.ClimateInfo.InsideTemp != nil {
			inside = append(inside, *d.ClimateInfo.InsideTemp)
		}
	}

	var out []Series
	out = appendSeries(out, Series{Title: "Speed", Unit: "km/h", Points: Downsample(speed, DriveChartPoints)})
	out = appendSeries(out, Series{Title: "Power", Unit: "kW", Points: Downsample(power, DriveChartPoints)})
	out = appendSeries(out, Series{Title: "Elevation", Unit: "m", Points: Downsample(elevation, DriveChartPoints)})
	out = appendSeries(out, Series{Title: "Battery Level", Unit: "%", Points: Downsample(battery, DriveChartPoints)})
	out = appendSeries(out, Series{Title: "Inside Temperature", Unit: "°C", Points: Downsample(inside, DriveChartPoints)})
	return out
}

// ChargeCharts 充电曲线：电量、功率、电压、电流、续航，带时间标签
func ChargeCharts(details []models.ChargeDetail, loc *time.Location) []Series {
	var dates, rangeDates []time.Time
	var battery, power, voltage, current, rng []float64
	for _, d := range details {
		dates = append(dates, d.Date)
		battery = append(battery, float64(d.BatteryLevel))
		power = append(power, d.ChargerDetails.ChargerPower)
		voltage = append(voltage, float64(d.ChargerDetails.ChargerVoltage))
		current = append(current, float64(d.ChargerDetails.ChargerActualCurrent))
		if d.BatteryInfo.IdealBatteryRange != nil {
			rng = append(rng, *d.BatteryInfo.IdealBatteryRange)
			rangeDates = append(rangeDates, d.Date)
		}
	}

	sampledDates := Downsample(dates, ChargeChartPoints)
	labels := AxisLabels(sampledDates, ChartAxisLabels, loc)
	rangeLabels := AxisLabels(Downsample(rangeDates, ChargeChartPoints), ChartAxisLabels, loc)

	var out []Series
	out = appendSeries(out, Series{Title: "Battery Level", Unit: "%", Points: Downsample(battery, ChargeChartPoints), Labels: labels})
	out = appendSeries(out, Series{Title: "Charger Power", Unit: "kW", Points: Downsample(power, ChargeChartPoints), Labels: labels})
	out = appendSeries(out, Series{Title: "Voltage", Unit: "V", Points: Downsample(voltage, ChargeChartPoints), Labels: labels})
	out = appendSeries(out, Series{Title: "Current", Unit: "A", Points: Downsample(current, ChargeChartPoints), Labels: labels})
	out = appendSeries(out, Series{Title: "Range", Unit: "km", Points: Downsample(rng, ChargeChartPoints), Labels: rangeLabels})
	return out
}
