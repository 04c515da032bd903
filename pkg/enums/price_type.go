package enums

import "fmt"

// PriceType labels which leg of the value chain a price history entry records.
type PriceType string

const (
	PriceTypeFarmGate  PriceType = "farm_gate"
	PriceTypeWholesale PriceType = "wholesale"
	PriceTypeRetail    PriceType = "retail"
)

var validPriceTypes = []PriceType{
	PriceTypeFarmGate,
	PriceTypeWholesale,
	PriceTypeRetail,
}

// String implements fmt.Stringer.
func (p PriceType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceType.
func (p PriceType) IsValid() bool {
	for _, candidate := range validPriceTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceType converts raw input into a PriceType.
func ParsePriceType(value string) (PriceType, error) {
	for _, candidate := range validPriceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price type %q", value)
}
