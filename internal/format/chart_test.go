package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/tesdash/internal/models"
)

func TestDownsample(t *testing.T) {
	small := []int{1, 2, 3}
	assert.Equal(t, small, Downsample(small, 20))

	data := make([]int, 50)
	for i := range data {
		data[i] = i
	}
	got := Downsample(data, 20)
	// step = ceil(50/20) = 3
	assert.Equal(t, []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42, 45, 48}, got)
	assert.LessOrEqual(t, len(got), 20)
}

func TestAxisLabels(t *testing.T) {
	base := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	var dates []time.Time
	for i := 0; i < 10; i++ {
		dates = append(dates, base.Add(time.Duration(i)*10*time.Minute))
	}

	labels := AxisLabels(dates, 4, time.UTC)
	require.Len(t, labels, 10)
	// step = (10-1)/(4-1) = 3
	assert.Equal(t, "20:00", labels[0])
	assert.Equal(t, "", labels[1])
	assert.Equal(t, "20:30", labels[3])
	assert.Equal(t, "21:00", labels[6])
	assert.Equal(t, "21:30", labels[9])

	assert.Nil(t, AxisLabels(nil, 4, time.UTC))
	assert.Equal(t, []string{"20:00"}, AxisLabels(dates[:1], 4, time.UTC))
}

func TestDriveCharts(t *testing.T) {
	elev := 10.0
	details := []models.DriveDetail{
		{Speed: 0, Power: 5, BatteryLevel: 80, Elevation: &elev},
		{Speed: 50, Power: 20, BatteryLevel: 80},
		{Speed: 80, Power: -10, BatteryLevel: 79},
	}

	charts := DriveCharts(details)
	titles := make([]string, 0, len(charts))
	for _, c := range charts {
		titles = append(titles, c.Title)
	}
	// 海拔只有一个点、车内温度没有点，不输出
	assert.Equal(t, []string{"Speed", "Power", "Battery Level"}, titles)
	assert.Equal(t, []float64{0, 50, 80}, charts[0].Points)
}

func TestChargeCharts(t *testing.T) {
	base := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	var details []models.ChargeDetail
	for i := 0; i < 60; i++ {
		r := 200.0 + float64(i)
		details = append(details, models.ChargeDetail{
			Date:           base.Add(time.Duration(i) * time.Minute),
			BatteryLevel:   40 + i/3,
			BatteryInfo:    models.BatteryInfo{IdealBatteryRange: &r},
			ChargerDetails: models.ChargerDetails{ChargerPower: 11, ChargerVoltage: 230, ChargerActualCurrent: 16},
		})
	}

	charts := ChargeCharts(details, time.UTC)
	require.Len(t, charts, 5)
	for _, c := range charts {
		assert.LessOrEqual(t, len(c.Points), ChargeChartPoints, c.Title)
		assert.Len(t, c.Labels, len(c.Points), c.Title)
		assert.Equal(t, "20:00", c.Labels[0], c.Title)
	}
	assert.Equal(t, "Range", charts[4].Title)
}
