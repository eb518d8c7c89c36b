package alert

import (
	"context"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type Repository interface {
	// HasPendingAlert reports whether a pending alert already exists for
	// (user, variant, office, alert_type) — the dedup unit of uniqueness.
	HasPendingAlert(ctx context.Context, userID string, variantID int64, officeID *int64, alertType model.AlertType) (bool, error)
	CreateBatch(ctx context.Context, alerts []model.Alert) error
}

// SnapshotReader is the slice of the snapshot store the generator needs.
type SnapshotReader interface {
	GetLatestForTenant(ctx context.Context, tenantID string) ([]model.StockSnapshot, error)
	GetHistory(ctx context.Context, tenantID string, variantID int64, officeID *int64, days int) ([]model.StockSnapshot, error)
}

// EventPublisher delivers created alerts to the email/digest worker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload interface{}) error
}
