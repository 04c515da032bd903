package types

import "github.com/shopspring/decimal"

// QualityParameterStatus is the per-parameter outcome of a quality check.
type QualityParameterStatus string

const (
	QualityParameterPass    QualityParameterStatus = "pass"
	QualityParameterFail    QualityParameterStatus = "fail"
	QualityParameterWarning QualityParameterStatus = "warning"
)

// QualityParameter is one measured value inside a quality check.
type QualityParameter struct {
	Name     string                 `json:"name"`
	Value    decimal.Decimal        `json:"value"`
	Unit     string                 `json:"unit,omitempty"`
	Standard string                 `json:"standard,omitempty"`
	Status   QualityParameterStatus `json:"status,omitempty"`
}

// QualityParameters is the jsonb-serialized parameter list on a check row.
type QualityParameters []QualityParameter
