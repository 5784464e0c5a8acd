package models

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseSensorSnapshot_Defaults(t *testing.T) {
	snap := ParseSensorSnapshot(map[string]any{
		"ph":          "7.2",
		"turbidity":   3.5,
		"temperature": "hot",
		"waterLevel":  nil,
		"flowRate":    math.NaN(),
	})

	assert.Equal(t, SensorSnapshot{PH: 7.2, Turbidity: 3.5}, snap)
}

func TestDecodeSensorSnapshot(t *testing.T) {
	snap := DecodeSensorSnapshot([]byte(`{"ph": 6.8, "turbidity": "1.25", "waterLevel": 140, "flowRate": 2}`))
	assert.Equal(t, 6.8, snap.PH)
	assert.Equal(t, 1.25, snap.Turbidity)
	assert.Equal(t, 100.0, snap.ClampedWaterLevel())
	assert.Equal(t, 2.0, snap.FlowRate)

	assert.Equal(t, SensorSnapshot{}, DecodeSensorSnapshot([]byte(`[1,2,3]`)))
	assert.True(t, DecodeSensorSnapshot([]byte(`garbage`)).IsDegenerate())
}

func TestClampedWaterLevel(t *testing.T) {
	assert.Equal(t, 0.0, SensorSnapshot{WaterLevel: -4}.ClampedWaterLevel())
	assert.Equal(t, 55.5, SensorSnapshot{WaterLevel: 55.5}.ClampedWaterLevel())
}

func TestSummaryFormatting(t *testing.T) {
	s := Summary{
		TotalLiters:  5.5,
		MoneySaved:   decimal.NewFromFloat(5.5).Mul(decimal.RequireFromString("3.00")),
		FilterHealth: 99.725,
	}

	assert.True(t, s.MoneySaved.Equal(decimal.RequireFromString("16.5")))
	assert.Equal(t, "5.5", s.FormatTotalLiters())
	assert.Equal(t, "17", s.FormatMoneySaved())
	assert.Equal(t, "100", s.FormatFilterHealth())
}

func TestSumBuckets(t *testing.T) {
	assert.Equal(t, 7.5, SumBuckets([]AggregateBucket{{Value: 2}, {Value: 5.5}}))
	assert.Equal(t, 0.0, SumBuckets(nil))
}
