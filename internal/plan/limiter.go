package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/threshold"
	"github.com/fekuna/stockwatch-sync-service/pkg/cache"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
	"go.uber.org/zap"
)

type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// FreeMaxThresholds caps how many thresholds a free-tier user may have
// active; the rest are skipped by the alert generator.
const FreeMaxThresholds = 50

// BillingService is the billing collaborator boundary. A cancelled
// subscription inside its grace period still reports PRO; that logic lives
// with billing, not here.
type BillingService interface {
	IsPro(ctx context.Context, userID string) (bool, error)
}

type LimitInfo struct {
	Plan         Plan
	CurrentCount int
	MaxAllowed   int // -1 means unlimited
	Remaining    int // -1 means unlimited
	IsOverLimit  bool
}

type Limiter interface {
	ResolvePlan(ctx context.Context, userID string) (Plan, error)
	GetUserLimitInfo(ctx context.Context, tenantID, userID string) (*LimitInfo, error)
	// GetActiveThresholdIDs returns the set of threshold IDs the alert
	// generator is permitted to evaluate for this user.
	GetActiveThresholdIDs(ctx context.Context, tenantID, userID string) (map[string]struct{}, error)
	GetSkippedCount(ctx context.Context, tenantID, userID string) (int, error)
}

type limiter struct {
	thresholds threshold.Repository
	billing    BillingService
	cache      *cache.RedisClient
	cacheTTL   time.Duration
	logger     logger.ZapLogger
}

func NewLimiter(thresholds threshold.Repository, billing BillingService, redis *cache.RedisClient, cacheTTL time.Duration, log logger.ZapLogger) Limiter {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &limiter{
		thresholds: thresholds,
		billing:    billing,
		cache:      redis,
		cacheTTL:   cacheTTL,
		logger:     log,
	}
}

func (l *limiter) ResolvePlan(ctx context.Context, userID string) (Plan, error) {
	cacheKey := "plan:" + userID

	if l.cache != nil {
		if val, ok, err := l.cache.Get(ctx, cacheKey); err == nil && ok {
			return Plan(val), nil
		}
	}

	pro, err := l.billing.IsPro(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve plan for user %s: %w", userID, err)
	}

	plan := PlanFree
	if pro {
		plan = PlanPro
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKey, string(plan), l.cacheTTL); err != nil {
			l.logger.Warn("plan cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return plan, nil
}

func (l *limiter) GetUserLimitInfo(ctx context.Context, tenantID, userID string) (*LimitInfo, error) {
	plan, err := l.ResolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := l.thresholds.CountByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	info := &LimitInfo{Plan: plan, CurrentCount: count}
	if plan == PlanPro {
		info.MaxAllowed = -1
		info.Remaining = -1
		return info, nil
	}

	info.MaxAllowed = FreeMaxThresholds
	info.Remaining = FreeMaxThresholds - count
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	info.IsOverLimit = count > FreeMaxThresholds
	return info, nil
}

func (l *limiter) GetActiveThresholdIDs(ctx context.Context, tenantID, userID string) (map[string]struct{}, error) {
	plan, err := l.ResolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := l.thresholds.ListIDsByUserOrdered(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if plan == PlanFree && len(ids) > FreeMaxThresholds {
		ids = ids[:FreeMaxThresholds]
	}

	active := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		active[id] = struct{}{}
	}
	return active, nil
}

func (l *limiter) GetSkippedCount(ctx context.Context, tenantID, userID string) (int, error) {
	plan, err := l.ResolvePlan(ctx, userID)
	if err != nil {
		return 0, err
	}
	if plan == PlanPro {
		return 0, nil
	}

	count, err := l.thresholds.CountByUser(ctx, tenantID, userID)
	if err != nil {
		return 0, err
	}
	if count <= FreeMaxThresholds {
		return 0, nil
	}
	return count - FreeMaxThresholds, nil
}
