package model

// Threshold is a user-defined stock alerting rule. VariantID nil denotes the
// user's default threshold, applied when no variant-specific one exists.
type Threshold struct {
	BaseModel
	TenantID    string  `db:"tenant_id" json:"tenant_id"`
	UserID      string  `db:"user_id" json:"user_id"`
	VariantID   *int64  `db:"variant_id" json:"variant_id"`
	OfficeID    *int64  `db:"office_id" json:"office_id"`
	MinQuantity float64 `db:"min_quantity" json:"min_quantity"`
	DaysWarning *int    `db:"days_warning" json:"days_warning"`
}
