package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SensorSnapshot is a full reading from the water sensor. Every reading
// replaces the previous one; missing or unparseable fields are 0.
type SensorSnapshot struct {
	PH          float64 `json:"ph"`
	Turbidity   float64 `json:"turbidity"`
	Temperature float64 `json:"temperature"`
	WaterLevel  float64 `json:"waterLevel"`
	FlowRate    float64 `json:"flowRate"`
}

// IsDegenerate reports the all-zero placeholder seen before the first real reading.
func (s SensorSnapshot) IsDegenerate() bool {
	return s.PH == 0 && s.Turbidity == 0
}

// ClampedWaterLevel bounds the tank level percentage to [0, 100].
func (s SensorSnapshot) ClampedWaterLevel() float64 {
	return math.Min(math.Max(s.WaterLevel, 0), 100)
}

// ParseSensorSnapshot reads a loosely typed sensor payload.
func ParseSensorSnapshot(raw map[string]any) SensorSnapshot {
	return SensorSnapshot{
		PH:          toNumber(raw["ph"]),
		Turbidity:   toNumber(raw["turbidity"]),
		Temperature: toNumber(raw["temperature"]),
		WaterLevel:  toNumber(raw["waterLevel"]),
		FlowRate:    toNumber(raw["flowRate"]),
	}
}

// DecodeSensorSnapshot parses a JSON object payload. Anything that is not a
// JSON object yields the zero snapshot.
func DecodeSensorSnapshot(payload []byte) SensorSnapshot {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SensorSnapshot{}
	}
	return ParseSensorSnapshot(raw)
}

func toNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
