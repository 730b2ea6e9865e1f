package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/langchou/tesdash/internal/models"
)

func TestStatusView(t *testing.T) {
	s := &models.CarStatus{
		State:          "charging",
		Odometer:       ptr(12345.6),
		CarStatus:      models.LockStatus{Locked: true},
		CarGeodata:     models.Geodata{Latitude: 52.123456, Longitude: 4.5},
		ClimateDetails: models.ClimateDetails{InsideTemp: ptr(0.0)},
		BatteryDetails: models.BatteryDetails{BatteryLevel: ptr(80)},
		ChargingDetails: models.ChargingDetails{
			ChargingState:    "Charging",
			ChargerPower:     11,
			TimeToFullCharge: ptr(1.5),
		},
	}

	v := Status(s)
	assert.Equal(t, "Charging", v.Badge.Label)
	assert.Equal(t, "80", v.BatteryLevel)
	assert.Equal(t, "-- km", v.Range)
	assert.True(t, v.Charging)
	assert.Equal(t, "11 kW", v.ChargerPower)
	assert.Equal(t, "1.5 hrs", v.TimeRemaining)
	assert.Equal(t, "-- kWh", v.EnergyAdded)
	assert.Equal(t, "0.0 °C", v.InsideTemp)
	assert.Equal(t, "-- °C", v.OutsideTemp)
	assert.Equal(t, "12,346 km", v.Odometer)
	assert.Equal(t, "Locked", v.Lock)
	assert.Equal(t, "52.1235, 4.5000", v.Location)
}

func TestStatusViewEmpty(t *testing.T) {
	v := Status(&models.CarStatus{})
	assert.Equal(t, Placeholder, v.BatteryLevel)
	assert.Equal(t, Placeholder, v.TimeRemaining)
	assert.Equal(t, "-- km", v.Odometer)
	assert.Equal(t, "Unlocked", v.Lock)
	assert.False(t, v.Charging)
}

func TestDriveSummary(t *testing.T) {
	d := &models.Drive{
		StartDate:       time.Date(2024, 5, 8, 7, 45, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 5, 8, 8, 50, 0, 0, time.UTC),
		OdometerDetails: models.OdometerDetails{OdometerDistance: 42.04},
		DurationMin:     65,
		ConsumptionNet:  ptr(151.6),
		SpeedAvg:        ptr(38.6),
		StartAddress:    ptr("Home"),
	}

	s := Drive(d, time.UTC)
	assert.Equal(t, "Wednesday, May 8, 2024", s.Date)
	assert.Equal(t, "07:45 Trip", s.Title)
	assert.Equal(t, "42.0 km", s.Distance)
	assert.Equal(t, "1h 5m", s.Duration)
	assert.Equal(t, "-- kWh", s.EnergyUsed)
	assert.Equal(t, "152 Wh/km", s.Efficiency)
	assert.Equal(t, "39 km/h", s.AvgSpeed)
	assert.Equal(t, "-- km/h", s.MaxSpeed)
	assert.Equal(t, "Home", s.StartAddress)
	assert.Equal(t, UnknownLocation, s.EndAddress)
}

func TestChargeSummary(t *testing.T) {
	c := &models.Charge{
		StartDate:         time.Date(2024, 5, 8, 20, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2024, 5, 8, 22, 15, 0, 0, time.UTC),
		BatteryDetails:    models.ChargeBatteryDetails{StartBatteryLevel: 20, EndBatteryLevel: 80},
		ChargeEnergyAdded: ptr(45.0),
		ChargeEnergyUsed:  ptr(50.0),
		DurationMin:       135,
		Cost:              ptr(0.0),
		OutsideTempAvg:    ptr(12.6),
	}

	s := Charge(c, "", time.UTC)
	assert.Equal(t, "Unknown Charge", s.Title)
	assert.Equal(t, UnknownLocation, s.Address)
	assert.Equal(t, "20% → 80%", s.Battery)
	assert.Equal(t, "90.0 %", s.Efficiency)
	assert.Equal(t, "2h 15m", s.Duration)
	assert.Equal(t, Placeholder, s.Cost, "free charges show no cost")
	assert.Equal(t, "13 °C", s.OutsideTemp)
	assert.Equal(t, Unknown, s.CableType)
	assert.Equal(t, "20:00 – 22:15", s.Time)

	c.Cost = ptr(7.5)
	assert.Equal(t, "7.50", Charge(c, "IEC", time.UTC).Cost)
}
