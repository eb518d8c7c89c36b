package plan

import (
	"context"
	"fmt"
	"testing"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
)

type fakeThresholdRepo struct {
	ids []string
}

func (r *fakeThresholdRepo) GetByUser(ctx context.Context, tenantID, userID string) ([]model.Threshold, error) {
	return nil, nil
}

func (r *fakeThresholdRepo) CountByUser(ctx context.Context, tenantID, userID string) (int, error) {
	return len(r.ids), nil
}

func (r *fakeThresholdRepo) ListIDsByUserOrdered(ctx context.Context, tenantID, userID string) ([]string, error) {
	return r.ids, nil
}

func (r *fakeThresholdRepo) ListUserIDs(ctx context.Context, tenantID string) ([]string, error) {
	return []string{"u1"}, nil
}

type fakeBilling struct {
	pro   bool
	calls int
}

func (b *fakeBilling) IsPro(ctx context.Context, userID string) (bool, error) {
	b.calls++
	return b.pro, nil
}

func thresholdIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("th-%03d", i)
	}
	return ids
}

func TestFreeUserOverLimit(t *testing.T) {
	repo := &fakeThresholdRepo{ids: thresholdIDs(60)}
	l := NewLimiter(repo, &fakeBilling{pro: false}, nil, 0, logger.NewNop())
	ctx := context.Background()

	info, err := l.GetUserLimitInfo(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetUserLimitInfo: %v", err)
	}
	if info.Plan != PlanFree {
		t.Errorf("Plan = %v, want FREE", info.Plan)
	}
	if info.CurrentCount != 60 || info.MaxAllowed != 50 || info.Remaining != 0 {
		t.Errorf("info = %+v, want count 60, max 50, remaining 0", info)
	}
	if !info.IsOverLimit {
		t.Error("IsOverLimit = false, want true")
	}

	active, err := l.GetActiveThresholdIDs(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetActiveThresholdIDs: %v", err)
	}
	if len(active) != 50 {
		t.Fatalf("active = %d, want 50", len(active))
	}
	// The cap keeps the oldest 50; the newest 10 are skipped.
	if _, ok := active["th-000"]; !ok {
		t.Error("oldest threshold missing from active set")
	}
	if _, ok := active["th-050"]; ok {
		t.Error("threshold 51 should be excluded")
	}

	skipped, err := l.GetSkippedCount(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetSkippedCount: %v", err)
	}
	if skipped != 10 {
		t.Errorf("skipped = %d, want 10", skipped)
	}
}

func TestFreeUserAtExactLimit(t *testing.T) {
	repo := &fakeThresholdRepo{ids: thresholdIDs(50)}
	l := NewLimiter(repo, &fakeBilling{pro: false}, nil, 0, logger.NewNop())
	ctx := context.Background()

	info, err := l.GetUserLimitInfo(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetUserLimitInfo: %v", err)
	}
	// Exactly at the cap is not over it.
	if info.IsOverLimit {
		t.Error("IsOverLimit = true at exactly 50, want false")
	}
	if info.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", info.Remaining)
	}

	skipped, err := l.GetSkippedCount(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetSkippedCount: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
}

func TestProUserUnlimited(t *testing.T) {
	repo := &fakeThresholdRepo{ids: thresholdIDs(200)}
	l := NewLimiter(repo, &fakeBilling{pro: true}, nil, 0, logger.NewNop())
	ctx := context.Background()

	info, err := l.GetUserLimitInfo(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetUserLimitInfo: %v", err)
	}
	if info.Plan != PlanPro {
		t.Errorf("Plan = %v, want PRO", info.Plan)
	}
	if info.MaxAllowed != -1 || info.Remaining != -1 {
		t.Errorf("info = %+v, want unlimited markers", info)
	}
	if info.IsOverLimit {
		t.Error("IsOverLimit = true for PRO, want false")
	}

	active, err := l.GetActiveThresholdIDs(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetActiveThresholdIDs: %v", err)
	}
	if len(active) != 200 {
		t.Errorf("active = %d, want all 200", len(active))
	}

	skipped, err := l.GetSkippedCount(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("GetSkippedCount: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
}

func TestResolvePlanQueriesBillingWithoutCache(t *testing.T) {
	billing := &fakeBilling{pro: true}
	l := NewLimiter(&fakeThresholdRepo{}, billing, nil, 0, logger.NewNop())

	plan, err := l.ResolvePlan(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	if plan != PlanPro {
		t.Errorf("plan = %v, want PRO", plan)
	}
	if billing.calls != 1 {
		t.Errorf("billing calls = %d, want 1", billing.calls)
	}
}
