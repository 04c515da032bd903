package enums

import "fmt"

// Unit is the measurement unit for a batch's quantity.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitPound    Unit = "lb"
	UnitTon      Unit = "ton"
	UnitPieces   Unit = "pieces"
	UnitBoxes    Unit = "boxes"
	UnitBags     Unit = "bags"
)

var validUnits = []Unit{
	UnitKilogram,
	UnitPound,
	UnitTon,
	UnitPieces,
	UnitBoxes,
	UnitBags,
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnit converts raw input into a Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}
