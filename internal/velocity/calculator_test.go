package velocity

import (
	"testing"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

func snap(daysAgo int, qty float64) model.StockSnapshot {
	date := time.Now().UTC().AddDate(0, 0, -daysAgo)
	return model.StockSnapshot{
		Quantity:     qty,
		SnapshotDate: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func intPtr(v int) *int { return &v }

func TestCalculateInsufficientData(t *testing.T) {
	for _, snapshots := range [][]model.StockSnapshot{
		nil,
		{snap(0, 10)},
	} {
		result := Calculate(snapshots)
		if result.DailyVelocity != 0 {
			t.Errorf("velocity = %v, want 0", result.DailyVelocity)
		}
		if result.Trend != TrendStable {
			t.Errorf("trend = %v, want stable", result.Trend)
		}
		if result.DaysToStockout != nil {
			t.Errorf("daysToStockout = %v, want nil", *result.DaysToStockout)
		}
	}
}

func TestCalculateSlowSelling(t *testing.T) {
	// 100 units seven days ago down to 55 today.
	snapshots := []model.StockSnapshot{
		snap(0, 55),
		snap(7, 100),
	}

	result := Calculate(snapshots)
	if result.DailyVelocity != 6.43 {
		t.Errorf("velocity = %v, want 6.43", result.DailyVelocity)
	}
	if result.Trend != TrendSlowSelling {
		t.Errorf("trend = %v, want slow_selling", result.Trend)
	}
	if result.DaysToStockout == nil || *result.DaysToStockout != 8.6 {
		t.Errorf("daysToStockout = %v, want 8.6", result.DaysToStockout)
	}
}

func TestCalculateFastSelling(t *testing.T) {
	// 120 units five days ago down to 50 today: 14/day.
	snapshots := []model.StockSnapshot{
		snap(5, 120),
		snap(0, 50),
	}

	result := Calculate(snapshots)
	if result.DailyVelocity != 14 {
		t.Errorf("velocity = %v, want 14", result.DailyVelocity)
	}
	if result.Trend != TrendFastSelling {
		t.Errorf("trend = %v, want fast_selling", result.Trend)
	}
	if result.DaysToStockout == nil || *result.DaysToStockout != 3.6 {
		t.Errorf("daysToStockout = %v, want 3.6", result.DaysToStockout)
	}
}

func TestCalculateIncreasingStock(t *testing.T) {
	snapshots := []model.StockSnapshot{
		snap(7, 40),
		snap(0, 90),
	}

	result := Calculate(snapshots)
	if result.DailyVelocity >= 0 {
		t.Errorf("velocity = %v, want negative", result.DailyVelocity)
	}
	if result.Trend != TrendIncreasing {
		t.Errorf("trend = %v, want increasing", result.Trend)
	}
	if result.DaysToStockout != nil {
		t.Errorf("daysToStockout = %v, want nil for growing stock", *result.DaysToStockout)
	}
}

func TestCalculateSameDay(t *testing.T) {
	snapshots := []model.StockSnapshot{
		snap(0, 100),
		snap(0, 40),
	}

	result := Calculate(snapshots)
	if result.DailyVelocity != 0 {
		t.Errorf("velocity = %v, want 0 for same-day snapshots", result.DailyVelocity)
	}
	if result.Trend != TrendStable {
		t.Errorf("trend = %v, want stable", result.Trend)
	}
}

func TestCheckAlertNotConfigured(t *testing.T) {
	snapshots := []model.StockSnapshot{snap(7, 100), snap(0, 55)}

	for _, daysWarning := range []*int{nil, intPtr(0)} {
		check := CheckAlert(snapshots, daysWarning, 55)
		if check.ShouldAlert {
			t.Error("ShouldAlert = true, want false when not configured")
		}
		if check.Reason != "not configured" {
			t.Errorf("reason = %q, want %q", check.Reason, "not configured")
		}
	}
}

func TestCheckAlertZeroQuantityNeverAlerts(t *testing.T) {
	// Fast depletion history, but zero current quantity belongs to the
	// out_of_stock alert type.
	snapshots := []model.StockSnapshot{snap(5, 120), snap(0, 50)}

	check := CheckAlert(snapshots, intPtr(30), 0)
	if check.ShouldAlert {
		t.Error("ShouldAlert = true, want false for zero quantity")
	}
	if check.Reason != "already out of stock" {
		t.Errorf("reason = %q, want %q", check.Reason, "already out of stock")
	}
}

func TestCheckAlertInsufficientHistory(t *testing.T) {
	check := CheckAlert([]model.StockSnapshot{snap(0, 55)}, intPtr(14), 55)
	if check.ShouldAlert {
		t.Error("ShouldAlert = true, want false with one snapshot")
	}
	if check.Reason != "insufficient historical data" {
		t.Errorf("reason = %q, want %q", check.Reason, "insufficient historical data")
	}
}

func TestCheckAlertStableOrIncreasing(t *testing.T) {
	snapshots := []model.StockSnapshot{snap(7, 40), snap(0, 90)}

	check := CheckAlert(snapshots, intPtr(14), 90)
	if check.ShouldAlert {
		t.Error("ShouldAlert = true, want false for growing stock")
	}
	if check.Reason != "stable or increasing" {
		t.Errorf("reason = %q, want %q", check.Reason, "stable or increasing")
	}
}

func TestCheckAlertBoundary(t *testing.T) {
	// 10/day from 100 to 50 over 5 days: daysToStockout = 5.0 exactly.
	snapshots := []model.StockSnapshot{
		snap(5, 100),
		snap(0, 50),
	}

	// Equal to the warning window: no alert.
	check := CheckAlert(snapshots, intPtr(5), 50)
	if check.ShouldAlert {
		t.Error("ShouldAlert = true at exact boundary, want false")
	}
	if check.Reason != "" {
		t.Errorf("reason = %q, want empty when below threshold is not crossed", check.Reason)
	}
	if check.DaysToStockout == nil || *check.DaysToStockout != 5.0 {
		t.Errorf("daysToStockout = %v, want 5.0", check.DaysToStockout)
	}

	// One above the projection: alert fires.
	check = CheckAlert(snapshots, intPtr(6), 50)
	if !check.ShouldAlert {
		t.Error("ShouldAlert = false one unit above boundary, want true")
	}
	if check.Reason == "" {
		t.Error("reason empty when alerting, want descriptive string")
	}
}
