// Package money represents currency amounts in the minor unit (cents) so
// that pot arithmetic and payout rounding stay exact.
package money

import (
	"fmt"
	"strconv"
)

// Amount is a quantity of money in cents.
type Amount int64

// FromFloat converts a major-unit value (e.g. 0.20 from a config file) to
// cents, rounding half away from zero.
func FromFloat(f float64) Amount {
	if f < 0 {
		return Amount(f*100 - 0.5)
	}
	return Amount(f*100 + 0.5)
}

// Float64 returns the amount in major units.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

// String formats the amount with two decimal places, e.g. "0.20".
func (a Amount) String() string {
	n := a
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// MarshalJSON encodes the amount as a decimal number in major units, the
// form the wire protocol uses.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a decimal number in major units.
func (a *Amount) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", b, err)
	}
	*a = FromFloat(f)
	return nil
}

// Commission returns the house cut of a pot at the given percentage,
// truncated toward zero so the winner's payout never exceeds the pot.
func Commission(pot Amount, percent int) Amount {
	if pot <= 0 || percent <= 0 {
		return 0
	}
	return pot * Amount(percent) / 100
}

// SplitEven divides a pot between n players with truncating division. The
// remainder is not credited to anyone.
func SplitEven(pot Amount, n int) (share, remainder Amount) {
	if n <= 0 || pot <= 0 {
		return 0, pot
	}
	share = pot / Amount(n)
	remainder = pot - share*Amount(n)
	return share, remainder
}
