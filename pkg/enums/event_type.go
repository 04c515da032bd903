package enums

import "fmt"

// EventType labels an entry in a batch's append-only event log. Status events
// share their name with the status they record; the remaining types cover
// ancillary ledger activity.
type EventType string

const (
	EventTypeRegistered         EventType = "REGISTERED"
	EventTypeInTransit          EventType = "IN_TRANSIT"
	EventTypeAtWholesaler       EventType = "AT_WHOLESALER"
	EventTypeAtRetailer         EventType = "AT_RETAILER"
	EventTypeSoldToConsumer     EventType = "SOLD_TO_CONSUMER"
	EventTypeQualityChecked     EventType = "QUALITY_CHECKED"
	EventTypePriceSet           EventType = "PRICE_SET"
	EventTypeCertificationAdded EventType = "CERTIFICATION_ADDED"
	EventTypeRecalled           EventType = "RECALLED"
)

var validEventTypes = []EventType{
	EventTypeRegistered,
	EventTypeInTransit,
	EventTypeAtWholesaler,
	EventTypeAtRetailer,
	EventTypeSoldToConsumer,
	EventTypeQualityChecked,
	EventTypePriceSet,
	EventTypeCertificationAdded,
	EventTypeRecalled,
}

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// EventTypeForStatus maps a batch status to its status-transition event type.
func EventTypeForStatus(status BatchStatus) EventType {
	return EventType(status)
}

// ParseEventType converts raw input into an EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
