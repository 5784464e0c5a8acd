package models

import (
	"github.com/shopspring/decimal"
)

// AggregateBucket is one slot of a derived usage series.
type AggregateBucket struct {
	Label string  `json:"label"`
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Summary is the all-time usage total with its derived figures.
// Values are unrounded; the Format helpers apply display precision.
type Summary struct {
	TotalLiters  float64         `json:"total_liters"`
	MoneySaved   decimal.Decimal `json:"money_saved"`
	FilterHealth float64         `json:"filter_health"`
}

func (s Summary) FormatTotalLiters() string {
	return decimal.NewFromFloat(s.TotalLiters).StringFixed(1)
}

func (s Summary) FormatMoneySaved() string {
	return s.MoneySaved.StringFixed(0)
}

func (s Summary) FormatFilterHealth() string {
	return decimal.NewFromFloat(s.FilterHealth).StringFixed(0)
}

// SumBuckets adds up the values of a bucket series.
func SumBuckets(buckets []AggregateBucket) float64 {
	total := 0.0
	for _, b := range buckets {
		total += b.Value
	}
	return total
}
