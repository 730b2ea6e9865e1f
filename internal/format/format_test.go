package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, Placeholder, Float(nil, 1))
	assert.Equal(t, "0.0", Float(ptr(0.0), 1), "zero is a valid measurement")
	assert.Equal(t, "12.35", Float(ptr(12.346), 2))
	assert.Equal(t, Placeholder, Int(nil))
	assert.Equal(t, "0", Int(ptr(0)))
	assert.Equal(t, "-- kWh", WithUnit(Float(nil, 1), "kWh"))
	assert.Equal(t, UnknownLocation, Text(nil, UnknownLocation))
	assert.Equal(t, UnknownLocation, Text(ptr("  "), UnknownLocation))
	assert.Equal(t, "Home", Text(ptr("Home"), UnknownLocation))
}

func TestGrouped(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, Placeholder},
		{ptr(0.0), "0"},
		{ptr(999.4), "999"},
		{ptr(12345.6), "12,346"},
		{ptr(1234567.0), "1,234,567"},
		{ptr(-4321.0), "-4,321"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grouped(tt.in))
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "0 min", Duration(0))
	assert.Equal(t, "59 min", Duration(59))
	assert.Equal(t, "1h 0m", Duration(60))
	assert.Equal(t, "2h 5m", Duration(125))
	assert.Equal(t, Placeholder, Duration(-1))
}

func TestEfficiency(t *testing.T) {
	assert.Equal(t, "90.0", Efficiency(ptr(45.0), ptr(50.0)))
	assert.Equal(t, Placeholder, Efficiency(nil, ptr(50.0)))
	assert.Equal(t, Placeholder, Efficiency(ptr(45.0), nil))
	assert.Equal(t, Placeholder, Efficiency(ptr(45.0), ptr(0.0)))
}

func TestStateBadge(t *testing.T) {
	assert.Equal(t, Badge{Label: "Online", Color: "green"}, StateBadge("online"))
	assert.Equal(t, "Asleep", StateBadge("suspended").Label)
	assert.Equal(t, "Status unknown", StateBadge("").Label)
	assert.Equal(t, Badge{Label: "Start", Color: "gray"}, StateBadge("start"))
}
