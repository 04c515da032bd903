package enums

import "fmt"

// QualityCheckType categorizes a quality inspection.
type QualityCheckType string

const (
	QualityCheckTypeVisual          QualityCheckType = "visual"
	QualityCheckTypeChemical        QualityCheckType = "chemical"
	QualityCheckTypeMicrobiological QualityCheckType = "microbiological"
	QualityCheckTypeSensory         QualityCheckType = "sensory"
)

var validQualityCheckTypes = []QualityCheckType{
	QualityCheckTypeVisual,
	QualityCheckTypeChemical,
	QualityCheckTypeMicrobiological,
	QualityCheckTypeSensory,
}

// String implements fmt.Stringer.
func (q QualityCheckType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QualityCheckType.
func (q QualityCheckType) IsValid() bool {
	for _, candidate := range validQualityCheckTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQualityCheckType converts raw input into a QualityCheckType.
func ParseQualityCheckType(value string) (QualityCheckType, error) {
	for _, candidate := range validQualityCheckTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality check type %q", value)
}
