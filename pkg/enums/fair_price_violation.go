package enums

// FairPriceViolationKind distinguishes which bound of a fair-price range a
// proposed retail price breaks.
type FairPriceViolationKind string

const (
	FairPriceViolationBelowFloor   FairPriceViolationKind = "BELOW_FLOOR"
	FairPriceViolationAboveCeiling FairPriceViolationKind = "ABOVE_CEILING"
)

// String implements fmt.Stringer.
func (f FairPriceViolationKind) String() string {
	return string(f)
}
