package telemetry

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seongmin-dev/welfare-report/constants"
)

// MileageSummary is the aggregate of a trailing mileage window.
type MileageSummary struct {
	TotalKm    float64
	AvgDailyKm float64
	Trend      constants.Trend
	Records    int
}

// Trend classification thresholds: the second half must move by more than
// 20% relative to the first half to leave "stable".
const (
	trendIncreaseFactor = 1.2
	trendDecreaseFactor = 0.8
)

// FetchRecentMileage issues one query per day of the trailing window in
// parallel, joins the results, and aggregates them for the given sensor.
// Result ordering across days is not relied on; the trend sort is by date.
//
// When the sensor-filtered set is empty but the union is not, the union is
// used instead. That matches the deployed behavior for single-sensor fleets
// and is a known correctness risk for multi-sensor ones.
func (c *Client) FetchRecentMileage(ctx context.Context, sensorID string, days int, today time.Time) (MileageSummary, error) {
	if days <= 0 {
		days = 7
	}

	daily := make([][]Record, days)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < days; i++ {
		i := i
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		g.Go(func() error {
			records, err := c.FetchDaily(gctx, date, sensorID)
			if err != nil {
				return err
			}
			daily[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MileageSummary{Trend: constants.TrendStable}, err
	}

	var union []Record
	for _, records := range daily {
		union = append(union, records...)
	}

	target := strings.TrimSpace(sensorID)
	var filtered []Record
	for _, rec := range union {
		if strings.TrimSpace(rec.SensorID) == target {
			filtered = append(filtered, rec)
		}
	}
	if len(filtered) == 0 && len(union) > 0 {
		c.log.Warn("telemetry.mileage.unfiltered_fallback",
			"sensor_id", sensorID, "union_records", len(union))
		filtered = union
	}

	var total float64
	for _, rec := range filtered {
		total += float64(rec.Distance)
	}
	total = round2(total)

	return MileageSummary{
		TotalKm:    total,
		AvgDailyKm: total / float64(days),
		Trend:      ClassifyTrend(filtered),
		Records:    len(filtered),
	}, nil
}

// ClassifyTrend splits the date-sorted records into halves by count (the
// first half takes the extra record on odd counts) and compares half means.
func ClassifyTrend(records []Record) constants.Trend {
	if len(records) < 2 {
		return constants.TrendStable
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	split := (len(sorted) + 1) / 2
	firstMean := meanDistance(sorted[:split])
	secondMean := meanDistance(sorted[split:])

	switch {
	case secondMean > firstMean*trendIncreaseFactor:
		return constants.TrendIncrease
	case secondMean < firstMean*trendDecreaseFactor:
		return constants.TrendDecrease
	default:
		return constants.TrendStable
	}
}

func meanDistance(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += float64(rec.Distance)
	}
	return sum / float64(len(records))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
