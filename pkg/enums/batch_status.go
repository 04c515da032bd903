package enums

import "fmt"

// BatchStatus tracks where a produce batch sits in the supply chain.
type BatchStatus string

const (
	BatchStatusRegistered     BatchStatus = "REGISTERED"
	BatchStatusInTransit      BatchStatus = "IN_TRANSIT"
	BatchStatusAtWholesaler   BatchStatus = "AT_WHOLESALER"
	BatchStatusAtRetailer     BatchStatus = "AT_RETAILER"
	BatchStatusSoldToConsumer BatchStatus = "SOLD_TO_CONSUMER"
)

var validBatchStatuses = []BatchStatus{
	BatchStatusRegistered,
	BatchStatusInTransit,
	BatchStatusAtWholesaler,
	BatchStatusAtRetailer,
	BatchStatusSoldToConsumer,
}

// String implements fmt.Stringer.
func (b BatchStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BatchStatus.
func (b BatchStatus) IsValid() bool {
	for _, candidate := range validBatchStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status transition is permitted.
func (b BatchStatus) IsTerminal() bool {
	return b == BatchStatusSoldToConsumer
}

// Next returns the immediate successor in the supply chain sequence, or false
// when the status is terminal.
func (b BatchStatus) Next() (BatchStatus, bool) {
	for i, candidate := range validBatchStatuses {
		if candidate == b && i+1 < len(validBatchStatuses) {
			return validBatchStatuses[i+1], true
		}
	}
	return "", false
}

// ParseBatchStatus converts raw input into a BatchStatus.
func ParseBatchStatus(value string) (BatchStatus, error) {
	for _, candidate := range validBatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid batch status %q", value)
}
