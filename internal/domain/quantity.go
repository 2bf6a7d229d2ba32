package domain

import (
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

// Quantity is a non-negative amount of stock units.
type Quantity int64

// ZeroQuantity is the additive identity.
const ZeroQuantity Quantity = 0

// NewQuantity creates a quantity, rejecting negative values
func NewQuantity(value int64) (Quantity, error) {
	if value < 0 {
		return ZeroQuantity, errors.NewNegativeQuantityError(value)
	}
	return Quantity(value), nil
}

// Add returns the sum of two quantities
func (q Quantity) Add(other Quantity) Quantity {
	return q + other
}

// Subtract returns the difference of two quantities. There is no clamping:
// arithmetic that would go negative is rejected, so call sites must check
// availability before mutating.
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	if other > q {
		return ZeroQuantity, errors.NewNegativeQuantityError(int64(q) - int64(other))
	}
	return q - other, nil
}

// LessThan reports whether q < other
func (q Quantity) LessThan(other Quantity) bool {
	return q < other
}

// LessThanOrEqual reports whether q <= other
func (q Quantity) LessThanOrEqual(other Quantity) bool {
	return q <= other
}

// GreaterThanOrEqual reports whether q >= other
func (q Quantity) GreaterThanOrEqual(other Quantity) bool {
	return q >= other
}

// IsZero reports whether the quantity is zero
func (q Quantity) IsZero() bool {
	return q == ZeroQuantity
}

// Int64 returns the underlying value
func (q Quantity) Int64() int64 {
	return int64(q)
}
