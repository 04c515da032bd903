package enums

import "fmt"

// AnchorAggregateType maps to the anchor_aggregate_type enum in Postgres.
type AnchorAggregateType string

const (
	AggregateBatch          AnchorAggregateType = "batch"
	AggregateFairPriceRange AnchorAggregateType = "fair_price_range"
	AggregateCertification  AnchorAggregateType = "certification"
)

var validAnchorAggregateTypes = []AnchorAggregateType{
	AggregateBatch,
	AggregateFairPriceRange,
	AggregateCertification,
}

// IsValid reports whether the value matches the canonical aggregate enum.
func (a AnchorAggregateType) IsValid() bool {
	for _, candidate := range validAnchorAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnchorAggregateType converts raw input into AnchorAggregateType.
func ParseAnchorAggregateType(value string) (AnchorAggregateType, error) {
	for _, candidate := range validAnchorAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid anchor aggregate type %q", value)
}

// AnchorEventType maps to the anchor_event_type enum in Postgres.
type AnchorEventType string

const (
	EventBatchRegistered    AnchorEventType = "batch_registered"
	EventBatchStatusChanged AnchorEventType = "batch_status_changed"
	EventBatchPricingSet    AnchorEventType = "batch_pricing_set"
	EventBatchRecalled      AnchorEventType = "batch_recalled"
	EventFairPriceRangeSet  AnchorEventType = "fair_price_range_set"

	EventCertificateExpiringSoon AnchorEventType = "certificate_expiring_soon"
	EventCertificateExpired      AnchorEventType = "certificate_expired"
)

var validAnchorEventTypes = []AnchorEventType{
	EventBatchRegistered,
	EventBatchStatusChanged,
	EventBatchPricingSet,
	EventBatchRecalled,
	EventFairPriceRangeSet,
	EventCertificateExpiringSoon,
	EventCertificateExpired,
}

// IsValid reports whether the value matches the canonical event enum.
func (e AnchorEventType) IsValid() bool {
	for _, candidate := range validAnchorEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseAnchorEventType converts raw input into AnchorEventType.
func ParseAnchorEventType(value string) (AnchorEventType, error) {
	for _, candidate := range validAnchorEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid anchor event type %q", value)
}
