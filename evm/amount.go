package evm

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// PYUSD constants
const (
	PYUSD_DECIMALS   = 6
	PYUSD_MULTIPLIER = 1_000_000 // 10^6
)

// ErrTooManyDecimals is returned by ParsePYUSD for amounts finer than one
// base unit.
var ErrTooManyDecimals = errors.New("too many decimal places")

// PYUSDAmount represents a PYUSD amount in its smallest unit
type PYUSDAmount struct {
	Value *big.Int
}

// NewPYUSDAmount creates a new PYUSD amount from a float
func NewPYUSDAmount(amount float64) (*PYUSDAmount, error) {
	if amount < 0 {
		return nil, fmt.Errorf("negative amount %f", amount)
	}
	// format with fixed precision to avoid float artifacts
	return ParsePYUSD(strconv.FormatFloat(amount, 'f', PYUSD_DECIMALS, 64))
}

// ParsePYUSD parses a non-negative decimal string such as "12.5" into base
// units. More than six fractional digits is an error.
func ParsePYUSD(s string) (*PYUSDAmount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > PYUSD_DECIMALS {
		return nil, fmt.Errorf("amount %q has more than %d decimals: %w", s, PYUSD_DECIMALS, ErrTooManyDecimals)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	frac += strings.Repeat("0", PYUSD_DECIMALS-len(frac))
	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return &PYUSDAmount{Value: value}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PYUSDFromBaseUnits wraps a raw on-chain amount. A nil input is zero.
func PYUSDFromBaseUnits(v *big.Int) *PYUSDAmount {
	if v == nil {
		return Zero()
	}
	return &PYUSDAmount{Value: new(big.Int).Set(v)}
}

// ToSmallestUnit returns the amount in base units
func (a *PYUSDAmount) ToSmallestUnit() *big.Int {
	return a.Value
}

// ToPYUSD returns the amount as a float64 (for display only)
func (a *PYUSDAmount) ToPYUSD() float64 {
	f, _ := strconv.ParseFloat(a.String(), 64)
	return f
}

// String formats the amount like ethers/viem formatUnits: no trailing
// fractional zeros and no dot for whole amounts.
func (a *PYUSDAmount) String() string {
	if a == nil || a.Value == nil {
		return "0"
	}
	neg := a.Value.Sign() < 0
	str := new(big.Int).Abs(a.Value).String()
	if len(str) <= PYUSD_DECIMALS {
		str = strings.Repeat("0", PYUSD_DECIMALS-len(str)+1) + str
	}
	whole := str[:len(str)-PYUSD_DECIMALS]
	decimal := strings.TrimRight(str[len(str)-PYUSD_DECIMALS:], "0")
	out := whole
	if decimal != "" {
		out += "." + decimal
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Zero returns a new PYUSDAmount with value 0
func Zero() *PYUSDAmount {
	return &PYUSDAmount{Value: new(big.Int)}
}

// Add adds two PYUSD amounts
func (a *PYUSDAmount) Add(b *PYUSDAmount) *PYUSDAmount {
	if a == nil || b == nil {
		return nil
	}
	return &PYUSDAmount{Value: new(big.Int).Add(a.Value, b.Value)}
}

// Sub subtracts two PYUSD amounts
func (a *PYUSDAmount) Sub(b *PYUSDAmount) *PYUSDAmount {
	if a == nil || b == nil {
		return nil
	}
	return &PYUSDAmount{Value: new(big.Int).Sub(a.Value, b.Value)}
}

// Mul scales the amount by an integer count, e.g. payment per post times
// max posts.
func (a *PYUSDAmount) Mul(n *big.Int) *PYUSDAmount {
	if a == nil || n == nil {
		return nil
	}
	return &PYUSDAmount{Value: new(big.Int).Mul(a.Value, n)}
}

// Cmp compares two PYUSD amounts
func (a *PYUSDAmount) Cmp(b *PYUSDAmount) int {
	if a == nil || b == nil {
		return 0
	}
	return a.Value.Cmp(b.Value)
}

// IsZero returns true if the amount is zero
func (a *PYUSDAmount) IsZero() bool {
	if a == nil || a.Value == nil {
		return true
	}
	return a.Value.Sign() == 0
}

// IsNegative returns true if the amount is negative
func (a *PYUSDAmount) IsNegative() bool {
	if a == nil || a.Value == nil {
		return false
	}
	return a.Value.Sign() < 0
}

// IsPositive returns true if the amount is positive
func (a *PYUSDAmount) IsPositive() bool {
	if a == nil || a.Value == nil {
		return false
	}
	return a.Value.Sign() > 0
}
