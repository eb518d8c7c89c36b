package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/alert"
	"github.com/fekuna/stockwatch-sync-service/internal/alert/dto"
	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/fekuna/stockwatch-sync-service/internal/plan"
	"github.com/fekuna/stockwatch-sync-service/internal/threshold"
	"github.com/fekuna/stockwatch-sync-service/internal/velocity"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
	"github.com/fekuna/stockwatch-sync-service/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// historyDays is the snapshot window fed to the velocity calculator.
const historyDays = 30

type alertUseCase struct {
	alertRepo     alert.Repository
	snapshots     alert.SnapshotReader
	thresholdRepo threshold.Repository
	limiter       plan.Limiter
	publisher     alert.EventPublisher
	logger        logger.ZapLogger
}

func NewAlertUseCase(
	alertRepo alert.Repository,
	snapshots alert.SnapshotReader,
	thresholdRepo threshold.Repository,
	limiter plan.Limiter,
	publisher alert.EventPublisher,
	log logger.ZapLogger,
) alert.UseCase {
	return &alertUseCase{
		alertRepo:     alertRepo,
		snapshots:     snapshots,
		thresholdRepo: thresholdRepo,
		limiter:       limiter,
		publisher:     publisher,
		logger:        log,
	}
}

func (uc *alertUseCase) GenerateForUser(ctx context.Context, tenantID, userID string) (*dto.UserResult, error) {
	active, err := uc.limiter.GetActiveThresholdIDs(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve active thresholds: %w", err)
	}

	thresholds, err := uc.thresholdRepo.GetByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}

	snapshots, err := uc.snapshots.GetLatestForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	var created []model.Alert
	for _, snap := range snapshots {
		th := resolveThreshold(thresholds, snap.VariantID, snap.OfficeID)
		if th == nil {
			continue
		}
		if _, ok := active[th.ID]; !ok {
			continue
		}

		candidate, err := uc.evaluate(ctx, tenantID, userID, th, &snap)
		if err != nil {
			// One variant's evaluation failure never aborts the user.
			uc.logger.Warn("threshold evaluation failed",
				zap.String("user_id", userID),
				zap.Int64("variant_id", snap.VariantID),
				zap.Error(err),
			)
			continue
		}
		if candidate == nil {
			continue
		}

		pending, err := uc.alertRepo.HasPendingAlert(ctx, userID, candidate.VariantID, candidate.OfficeID, candidate.AlertType)
		if err != nil {
			uc.logger.Warn("pending alert lookup failed",
				zap.String("user_id", userID),
				zap.Int64("variant_id", candidate.VariantID),
				zap.Error(err),
			)
			continue
		}
		if pending {
			continue
		}

		created = append(created, *candidate)
	}

	if len(created) > 0 {
		if err := uc.alertRepo.CreateBatch(ctx, created); err != nil {
			return nil, fmt.Errorf("create alerts: %w", err)
		}
		uc.publishEvents(ctx, created)
	}

	skipped, err := uc.limiter.GetSkippedCount(ctx, tenantID, userID)
	if err != nil {
		uc.logger.Warn("skipped count lookup failed", zap.String("user_id", userID), zap.Error(err))
		skipped = 0
	}

	return &dto.UserResult{
		UserID:            userID,
		AlertsCreated:     len(created),
		ThresholdsSkipped: skipped,
	}, nil
}

// evaluate returns the single alert candidate for one snapshot, or nil.
// Priority: out_of_stock, then low_stock, then low_velocity.
func (uc *alertUseCase) evaluate(ctx context.Context, tenantID, userID string, th *model.Threshold, snap *model.StockSnapshot) (*model.Alert, error) {
	base := model.Alert{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		TenantID:          tenantID,
		UserID:            userID,
		VariantID:         snap.VariantID,
		OfficeID:          snap.OfficeID,
		CurrentQuantity:   snap.Quantity,
		ThresholdQuantity: th.MinQuantity,
		Status:            model.AlertStatusPending,
	}

	if snap.Quantity == 0 {
		base.AlertType = model.AlertTypeOutOfStock
		return &base, nil
	}

	if snap.Quantity < th.MinQuantity {
		base.AlertType = model.AlertTypeLowStock
		return &base, nil
	}

	if th.DaysWarning == nil || *th.DaysWarning == 0 {
		return nil, nil
	}

	history, err := uc.snapshots.GetHistory(ctx, tenantID, snap.VariantID, snap.OfficeID, historyDays)
	if err != nil {
		return nil, fmt.Errorf("load snapshot history: %w", err)
	}

	check := velocity.CheckAlert(history, th.DaysWarning, snap.Quantity)
	if !check.ShouldAlert {
		return nil, nil
	}

	base.AlertType = model.AlertTypeLowVelocity
	base.DaysToStockout = check.DaysToStockout
	return &base, nil
}

func (uc *alertUseCase) publishEvents(ctx context.Context, alerts []model.Alert) {
	if uc.publisher == nil {
		return
	}
	for _, a := range alerts {
		metrics.RecordAlertCreated(string(a.AlertType))
		event := dto.AlertCreatedEvent{
			EventType: "alert.created",
			Alert:     a,
			Timestamp: time.Now(),
		}
		if err := uc.publisher.Publish(ctx, a.ID, event); err != nil {
			uc.logger.Warn("alert event publish failed", zap.String("alert_id", a.ID), zap.Error(err))
		}
	}
}

func (uc *alertUseCase) GenerateForTenant(ctx context.Context, tenantID string) (*dto.Summary, error) {
	userIDs, err := uc.thresholdRepo.ListUserIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users with thresholds: %w", err)
	}

	summary := &dto.Summary{TenantID: tenantID}
	for _, userID := range userIDs {
		result, err := uc.GenerateForUser(ctx, tenantID, userID)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("user %s: %v", userID, err))
			continue
		}
		summary.Users = append(summary.Users, *result)
		summary.AlertsCreated += result.AlertsCreated
	}

	uc.logger.Info("alert generation completed",
		zap.String("tenant_id", tenantID),
		zap.Int("alerts_created", summary.AlertsCreated),
		zap.Int("users", len(userIDs)),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

// resolveThreshold picks the most specific rule for a variant/office:
// exact variant+office, then variant with no office restriction, then the
// user's default (variant null).
func resolveThreshold(thresholds []model.Threshold, variantID int64, officeID *int64) *model.Threshold {
	var variantAnyOffice, defaultTh *model.Threshold

	for i := range thresholds {
		th := &thresholds[i]
		if th.VariantID == nil {
			if defaultTh == nil {
				defaultTh = th
			}
			continue
		}
		if *th.VariantID != variantID {
			continue
		}
		if th.OfficeID == nil {
			if variantAnyOffice == nil {
				variantAnyOffice = th
			}
			continue
		}
		if officeID != nil && *th.OfficeID == *officeID {
			return th
		}
	}

	if variantAnyOffice != nil {
		return variantAnyOffice
	}
	return defaultTh
}
