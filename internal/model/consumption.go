package model

import "time"

// DailyConsumption accumulates sales per (tenant, variant, office, day).
// Repeated upserts for the same key ADD to quantity_sold and document_count
// rather than overwrite.
type DailyConsumption struct {
	BaseModel
	TenantID      string    `db:"tenant_id" json:"tenant_id"`
	VariantID     int64     `db:"variant_id" json:"variant_id"`
	OfficeID      *int64    `db:"office_id" json:"office_id"`
	Date          time.Time `db:"date" json:"date"`
	QuantitySold  float64   `db:"quantity_sold" json:"quantity_sold"`
	DocumentCount int       `db:"document_count" json:"document_count"`
}
