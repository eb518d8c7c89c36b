package model

type AlertType string

const (
	AlertTypeLowStock    AlertType = "low_stock"
	AlertTypeOutOfStock  AlertType = "out_of_stock"
	AlertTypeLowVelocity AlertType = "low_velocity"
)

type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusSent      AlertStatus = "sent"
	AlertStatusDismissed AlertStatus = "dismissed"
)

// Alert is one notification candidate. At most one pending alert may exist
// per (user_id, variant_id, office_id, alert_type).
type Alert struct {
	BaseModel
	TenantID          string      `db:"tenant_id" json:"tenant_id"`
	UserID            string      `db:"user_id" json:"user_id"`
	VariantID         int64       `db:"variant_id" json:"variant_id"`
	OfficeID          *int64      `db:"office_id" json:"office_id"`
	AlertType         AlertType   `db:"alert_type" json:"alert_type"`
	CurrentQuantity   float64     `db:"current_quantity" json:"current_quantity"`
	ThresholdQuantity float64     `db:"threshold_quantity" json:"threshold_quantity"`
	DaysToStockout    *float64    `db:"days_to_stockout" json:"days_to_stockout"`
	Status            AlertStatus `db:"status" json:"status"`
}
