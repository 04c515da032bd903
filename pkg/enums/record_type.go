package enums

import "fmt"

// RecordType identifies the kind of portable signed record.
type RecordType string

const (
	RecordTypeBatchTracking           RecordType = "batch_tracking"
	RecordTypeEventTracking           RecordType = "event_tracking"
	RecordTypeCertificateVerification RecordType = "certificate_verification"
)

var validRecordTypes = []RecordType{
	RecordTypeBatchTracking,
	RecordTypeEventTracking,
	RecordTypeCertificateVerification,
}

// String implements fmt.Stringer.
func (r RecordType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecordType.
func (r RecordType) IsValid() bool {
	for _, candidate := range validRecordTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecordType converts raw input into a RecordType.
func ParseRecordType(value string) (RecordType, error) {
	for _, candidate := range validRecordTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record type %q", value)
}
