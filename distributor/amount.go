package distributor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a human-unit token amount. It rejects anything
// that is not a positive finite number.
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("amount is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount %q is not finite", raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	return value, nil
}

// ToBaseUnits converts a human amount to the ledger's integer
// representation by scaling with 10^decimals and rounding to the
// nearest base unit. Amounts whose scaled value does not fit in a
// uint64 are rejected; the float→uint conversion would otherwise wrap
// to a different amount.
func ToBaseUnits(human float64, decimals uint8) (uint64, error) {
	scaled := human * math.Pow10(int(decimals))
	if scaled >= math.MaxUint64 {
		return 0, fmt.Errorf("amount %g exceeds the representable base-unit range", human)
	}
	return uint64(math.Round(scaled)), nil
}

// FromBaseUnits converts integer base units back to human units.
func FromBaseUnits(units uint64, decimals uint8) float64 {
	return float64(units) / math.Pow10(int(decimals))
}
