package model

import "time"

// StockSnapshot is one point-in-time stock reading. Uniqueness key is
// (tenant_id, variant_id, office_id, snapshot_date), office_id nullable:
// a tenant-wide row (office NULL) and a per-office row are distinct.
type StockSnapshot struct {
	BaseModel
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	VariantID    int64     `db:"variant_id" json:"variant_id"`
	OfficeID     *int64    `db:"office_id" json:"office_id"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Reserved     float64   `db:"reserved" json:"reserved"`
	Available    float64   `db:"available" json:"available"`
	SKU          *string   `db:"sku" json:"sku"`
	Barcode      *string   `db:"barcode" json:"barcode"`
	ProductName  *string   `db:"product_name" json:"product_name"`
	SnapshotDate time.Time `db:"snapshot_date" json:"snapshot_date"`
}
