package valueobject

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// QuantityPrecision is the number of fractional digits kept for counted and invoiced quantities
const QuantityPrecision int32 = 3

// ErrNegativeQuantity is returned when a quantity would drop below zero
var ErrNegativeQuantity = errors.New("quantity cannot be negative")

// Quantity is a non-negative amount of goods with up to three fractional digits.
// Fractional values cover weight and volume based goods. It is immutable.
type Quantity struct {
	value decimal.Decimal
}

// NewQuantity creates a Quantity rounded to QuantityPrecision
func NewQuantity(value decimal.Decimal) (Quantity, error) {
	rounded := value.Round(QuantityPrecision)
	if rounded.IsNegative() {
		return Quantity{}, ErrNegativeQuantity
	}
	return Quantity{value: rounded}, nil
}

// NewQuantityFromString creates a Quantity from a decimal string such as "12.500"
func NewQuantityFromString(value string) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity string: %w", err)
	}
	return NewQuantity(d)
}

// NewQuantityFromInt creates Quantity from an int64 value
func NewQuantityFromInt(value int64) (Quantity, error) {
	return NewQuantity(decimal.NewFromInt(value))
}

// MustNewQuantity creates a Quantity and panics on error
func MustNewQuantity(value decimal.Decimal) Quantity {
	q, err := NewQuantity(value)
	if err != nil {
		panic(err)
	}
	return q
}

// MustQuantity parses a decimal string and panics on error. Intended for tests and constants.
func MustQuantity(value string) Quantity {
	q, err := NewQuantityFromString(value)
	if err != nil {
		panic(err)
	}
	return q
}

// ZeroQuantity returns a zero quantity
func ZeroQuantity() Quantity {
	return Quantity{value: decimal.Zero}
}

// Amount returns the decimal value
func (q Quantity) Amount() decimal.Decimal {
	return q.value
}

// IsZero returns true if the quantity is zero
func (q Quantity) IsZero() bool {
	return q.value.IsZero()
}

// IsPositive returns true if the quantity is positive
func (q Quantity) IsPositive() bool {
	return q.value.IsPositive()
}

// Add returns the sum rounded to QuantityPrecision
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{value: q.value.Add(other.value).Round(QuantityPrecision)}
}

// Difference returns q - other, which may be negative
func (q Quantity) Difference(other Quantity) decimal.Decimal {
	return q.value.Sub(other.value)
}

// Equals compares at the stored precision with no tolerance
func (q Quantity) Equals(other Quantity) bool {
	return q.value.Equal(other.value)
}

// GreaterThan returns true if this quantity is greater than the other
func (q Quantity) GreaterThan(other Quantity) bool {
	return q.value.GreaterThan(other.value)
}

// String returns the value with three fractional digits
func (q Quantity) String() string {
	return q.value.StringFixed(QuantityPrecision)
}

// MarshalJSON encodes the quantity as a JSON string with fixed precision
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

// UnmarshalJSON accepts both JSON numbers and strings and enforces non-negativity
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	parsed, err := NewQuantity(d)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (q Quantity) Value() (driver.Value, error) {
	return q.value.StringFixed(QuantityPrecision), nil
}

// Scan implements sql.Scanner for database retrieval
func (q *Quantity) Scan(value any) error {
	if value == nil {
		q.value = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("failed to scan quantity: %w", err)
	}
	parsed, err := NewQuantity(d)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
