package entities

import "github.com/shopspring/decimal"

// Cents is a currency amount in minor units. All engine arithmetic happens in Cents;
// decimals only appear at the presentation boundary.
type Cents int64

// Decimal returns the amount as a 2-place decimal
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with exactly two decimal places
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Mul multiplies the amount by an integer factor
func (c Cents) Mul(n int64) Cents {
	return Cents(int64(c) * n)
}
