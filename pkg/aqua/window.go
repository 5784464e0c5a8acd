package aqua

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/datekey"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

type Direction string

const (
	DirectionBackward Direction = "backward"
	DirectionForward  Direction = "forward"
)

const DefaultSpanDays = 7
const DefaultMonthCount = 12

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionBackward:
		return DirectionBackward, nil
	case DirectionForward:
		return DirectionForward, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// checkRecord reports why a stored record cannot be aggregated.
func checkRecord(r models.DailyUsage) error {
	if _, err := datekey.Parse(r.Date); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if math.IsNaN(r.Liters) || math.IsInf(r.Liters, 0) || r.Liters < 0 {
		return fmt.Errorf("%w: liters %v on %s", ErrMalformedRecord, r.Liters, r.Date)
	}
	return nil
}

func wellFormed(records []models.DailyUsage) []models.DailyUsage {
	return common.Filter(records, func(r models.DailyUsage) bool {
		if err := checkRecord(r); err != nil {
			common.GetLoggerWith(
				common.LoggerNameAquaCore,
				zap.String(common.LoggerFieldAquaCategory, common.LoggerCategoryAquaUsage),
			).Debug("Skipped record", zap.String("user_id", r.UserID), zap.Error(err))
			return false
		}
		return true
	})
}

// windowKeys is the inclusive key range of a rolling window.
func windowKeys(anchor time.Time, spanDays int, direction Direction) (datekey.Key, datekey.Key, error) {
	first, last := windowRange(anchor, spanDays, direction)
	return keyRange(first, last)
}

// monthKeys is the inclusive key range of a rolling month series.
func monthKeys(anchor time.Time, monthCount int) (datekey.Key, datekey.Key, error) {
	first, last := monthRange(anchor, monthCount)
	return keyRange(first, last)
}

func keyRange(first, last time.Time) (datekey.Key, datekey.Key, error) {
	from, err := datekey.LocalDayKey(first)
	if err != nil {
		return "", "", err
	}
	to, err := datekey.LocalDayKey(last)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

// windowRange returns the first and last day of a rolling window.
func windowRange(anchor time.Time, spanDays int, direction Direction) (time.Time, time.Time) {
	if direction == DirectionForward {
		return anchor, datekey.AddDays(anchor, spanDays-1)
	}
	return datekey.AddDays(anchor, -(spanDays - 1)), anchor
}

// BuildRollingWindow lays out spanDays consecutive days ending (backward) or
// starting (forward) at anchor's local day, then adds each record's liters
// to the day with the same key. Days are labeled Sun..Sat. A day outside
// the representable years keeps an empty key and stays zero.
func BuildRollingWindow(records []models.DailyUsage, anchor time.Time, spanDays int, direction Direction) []models.AggregateBucket {
	if spanDays <= 0 {
		return []models.AggregateBucket{}
	}

	first, _ := windowRange(anchor, spanDays, direction)
	buckets := make([]models.AggregateBucket, spanDays)
	index := make(map[string]int, spanDays)
	for i := range spanDays {
		day := datekey.AddDays(first, i)
		buckets[i] = models.AggregateBucket{Label: day.Weekday().String()[:3]}
		if key, err := datekey.LocalDayKey(day); err == nil {
			buckets[i].Key = key.String()
			index[key.String()] = i
		}
	}

	for _, r := range wellFormed(records) {
		if i, ok := index[r.Date]; ok {
			buckets[i].Value += r.Liters
		}
	}
	return buckets
}

// monthRange returns the first day of anchor's month and the last day of
// the monthCount-th month.
func monthRange(anchor time.Time, monthCount int) (time.Time, time.Time) {
	return datekey.FirstOfMonth(anchor, 0), datekey.AddDays(datekey.FirstOfMonth(anchor, monthCount), -1)
}

// BuildRollingMonths lays out monthCount consecutive months starting at
// anchor's month, wrapping into the following years, labeled Jan..Dec.
func BuildRollingMonths(records []models.DailyUsage, anchor time.Time, monthCount int) []models.AggregateBucket {
	if monthCount <= 0 {
		return []models.AggregateBucket{}
	}

	buckets := make([]models.AggregateBucket, monthCount)
	index := make(map[string]int, monthCount)
	for i := range monthCount {
		month := datekey.FirstOfMonth(anchor, i)
		key := datekey.MonthKeyOf(month)
		buckets[i] = models.AggregateBucket{Label: month.Month().String()[:3], Key: key}
		index[key] = i
	}

	for _, r := range wellFormed(records) {
		if i, ok := index[datekey.MonthKey(datekey.Key(r.Date))]; ok {
			buckets[i].Value += r.Liters
		}
	}
	return buckets
}

// BuildYearlyTotals has one bucket per year present in records, ascending.
func BuildYearlyTotals(records []models.DailyUsage) []models.AggregateBucket {
	totals := map[string]float64{}
	var years []string
	for _, r := range wellFormed(records) {
		year := datekey.YearKey(datekey.Key(r.Date))
		if _, ok := totals[year]; !ok {
			years = append(years, year)
		}
		totals[year] += r.Liters
	}

	// keys are fixed-width, string order is year order
	slices.Sort(years)

	return common.Mapper(years, func(year string) models.AggregateBucket {
		return models.AggregateBucket{Label: year, Key: year, Value: totals[year]}
	})
}

// Summarize totals every well-formed record. FilterHealth is the remaining
// filter life in percent, never below zero.
func Summarize(records []models.DailyUsage, unitRate decimal.Decimal, filterLifeLiters float64) models.Summary {
	total := common.Reducer(wellFormed(records), func(acc float64, r models.DailyUsage) float64 {
		return acc + r.Liters
	}, 0.0)

	if filterLifeLiters <= 0 {
		filterLifeLiters = DefaultSettings.FilterLifeLiters
	}

	return models.Summary{
		TotalLiters:  total,
		MoneySaved:   decimal.NewFromFloat(total).Mul(unitRate),
		FilterHealth: math.Max(0, 100-total/filterLifeLiters*100),
	}
}
