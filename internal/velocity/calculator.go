package velocity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type Trend string

const (
	TrendStable      Trend = "stable"
	TrendIncreasing  Trend = "increasing"
	TrendSlowSelling Trend = "slow_selling"
	TrendFastSelling Trend = "fast_selling"
)

// FastSellingThreshold is the fixed units/day rate above which an item is
// classified fast_selling. Not configurable.
const FastSellingThreshold = 10.0

// Result is derived per (tenant, variant, office); never persisted.
type Result struct {
	DailyVelocity  float64
	DaysToStockout *float64
	Trend          Trend
	DataPoints     int
}

// AlertCheck is the outcome of evaluating a days_warning threshold.
type AlertCheck struct {
	ShouldAlert    bool
	Reason         string
	DaysToStockout *float64
	DailyVelocity  float64
}

// Calculate derives depletion rate and projected stockout from snapshots of
// one variant. The input need not be ordered; the earliest and latest
// snapshots are the two endpoints regardless of gaps between them.
func Calculate(snapshots []model.StockSnapshot) Result {
	if len(snapshots) < 2 {
		return Result{DailyVelocity: 0, Trend: TrendStable, DataPoints: len(snapshots)}
	}

	sorted := make([]model.StockSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SnapshotDate.Before(sorted[j].SnapshotDate)
	})

	earliest := sorted[0]
	latest := sorted[len(sorted)-1]

	days := daysBetween(earliest.SnapshotDate, latest.SnapshotDate)
	if days == 0 {
		// Same calendar day: no depletion window, never a division by zero.
		return Result{DailyVelocity: 0, Trend: TrendStable, DataPoints: len(snapshots)}
	}

	velocity := round2((earliest.Quantity - latest.Quantity) / float64(days))

	result := Result{
		DailyVelocity: velocity,
		Trend:         classify(velocity),
		DataPoints:    len(snapshots),
	}

	if velocity > 0 && latest.Quantity > 0 {
		dts := round1(latest.Quantity / velocity)
		result.DaysToStockout = &dts
	}

	return result
}

// CheckAlert evaluates whether a low-velocity alert should fire for the given
// days_warning threshold and current quantity.
func CheckAlert(snapshots []model.StockSnapshot, daysWarning *int, currentQty float64) AlertCheck {
	if daysWarning == nil || *daysWarning == 0 {
		return AlertCheck{Reason: "not configured"}
	}
	if currentQty == 0 {
		// The out_of_stock alert type covers this case.
		return AlertCheck{Reason: "already out of stock"}
	}
	if len(snapshots) < 2 {
		return AlertCheck{Reason: "insufficient historical data"}
	}

	result := Calculate(snapshots)
	if result.DailyVelocity <= 0 {
		return AlertCheck{Reason: "stable or increasing", DailyVelocity: result.DailyVelocity}
	}
	if result.DaysToStockout == nil {
		return AlertCheck{Reason: "already out of stock", DailyVelocity: result.DailyVelocity}
	}

	check := AlertCheck{
		DaysToStockout: result.DaysToStockout,
		DailyVelocity:  result.DailyVelocity,
	}
	// Strict comparison: a projection exactly equal to the warning window
	// does not alert.
	if *result.DaysToStockout < float64(*daysWarning) {
		check.ShouldAlert = true
		check.Reason = fmt.Sprintf("projected stockout in %.1f days at %.2f units/day",
			*result.DaysToStockout, result.DailyVelocity)
	}
	return check
}

func classify(velocity float64) Trend {
	switch {
	case velocity == 0:
		return TrendStable
	case velocity < 0:
		return TrendIncreasing
	case velocity > FastSellingThreshold:
		return TrendFastSelling
	default:
		return TrendSlowSelling
	}
}

// daysBetween counts calendar days at UTC day granularity.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.UTC().Year(), a.UTC().Month(), a.UTC().Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.UTC().Year(), b.UTC().Month(), b.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
