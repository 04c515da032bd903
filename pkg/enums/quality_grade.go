package enums

import "fmt"

// QualityGrade is the grade assigned to a batch at registration.
type QualityGrade string

const (
	QualityGradeA        QualityGrade = "A"
	QualityGradeB        QualityGrade = "B"
	QualityGradeC        QualityGrade = "C"
	QualityGradeOrganic  QualityGrade = "Organic"
	QualityGradePremium  QualityGrade = "Premium"
	QualityGradeStandard QualityGrade = "Standard"
)

var validQualityGrades = []QualityGrade{
	QualityGradeA,
	QualityGradeB,
	QualityGradeC,
	QualityGradeOrganic,
	QualityGradePremium,
	QualityGradeStandard,
}

// String implements fmt.Stringer.
func (q QualityGrade) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QualityGrade.
func (q QualityGrade) IsValid() bool {
	for _, candidate := range validQualityGrades {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQualityGrade converts raw input into a QualityGrade.
func ParseQualityGrade(value string) (QualityGrade, error) {
	for _, candidate := range validQualityGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality grade %q", value)
}
