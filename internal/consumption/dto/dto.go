package dto

type AggregationResult struct {
	DocumentsProcessed int
	VariantDaysUpdated int
}
