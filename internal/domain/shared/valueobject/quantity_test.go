package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantity(t *testing.T) {
	t.Run("rounds to three decimals", func(t *testing.T) {
		q, err := NewQuantity(decimal.RequireFromString("1.23456"))
		require.NoError(t, err)
		assert.Equal(t, "1.235", q.String())
	})

	t.Run("returns error for negative quantity", func(t *testing.T) {
		_, err := NewQuantity(decimal.NewFromInt(-5))
		assert.ErrorIs(t, err, ErrNegativeQuantity)
	})

	t.Run("allows zero quantity", func(t *testing.T) {
		q, err := NewQuantity(decimal.Zero)
		require.NoError(t, err)
		assert.True(t, q.IsZero())
		assert.False(t, q.IsPositive())
	})

	t.Run("tiny negative rounds to zero", func(t *testing.T) {
		q, err := NewQuantity(decimal.RequireFromString("-0.0001"))
		require.NoError(t, err)
		assert.True(t, q.IsZero())
	})
}

func TestNewQuantityFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		q, err := NewQuantityFromString("50.25")
		require.NoError(t, err)
		assert.True(t, q.Amount().Equal(decimal.RequireFromString("50.25")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewQuantityFromString("abc")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid quantity string")
	})
}

func TestQuantity_Add(t *testing.T) {
	t.Run("accumulates without drift", func(t *testing.T) {
		q := ZeroQuantity()
		step := MustQuantity("0.1")
		for i := 0; i < 10; i++ {
			q = q.Add(step)
		}
		assert.True(t, q.Equals(MustQuantity("1")))
	})

	t.Run("sums integers", func(t *testing.T) {
		q := MustQuantity("2").Add(MustQuantity("3"))
		assert.Equal(t, "5.000", q.String())
	})
}

func TestQuantity_Difference(t *testing.T) {
	assert.True(t, MustQuantity("8").Difference(MustQuantity("10")).Equal(decimal.NewFromInt(-2)))
	assert.True(t, MustQuantity("12.5").Difference(MustQuantity("10")).Equal(decimal.RequireFromString("2.5")))
}

func TestQuantity_Equals(t *testing.T) {
	assert.True(t, MustQuantity("10").Equals(MustQuantity("10.000")))
	assert.False(t, MustQuantity("10").Equals(MustQuantity("10.001")))
	assert.True(t, MustQuantity("10.001").GreaterThan(MustQuantity("10")))
}

func TestQuantity_JSON(t *testing.T) {
	t.Run("marshals as fixed precision string", func(t *testing.T) {
		data, err := json.Marshal(MustQuantity("1.5"))
		require.NoError(t, err)
		assert.Equal(t, `"1.500"`, string(data))
	})

	t.Run("unmarshals numbers and strings", func(t *testing.T) {
		var a, b Quantity
		require.NoError(t, json.Unmarshal([]byte(`2.25`), &a))
		require.NoError(t, json.Unmarshal([]byte(`"2.25"`), &b))
		assert.True(t, a.Equals(b))
	})

	t.Run("rejects negative values", func(t *testing.T) {
		var q Quantity
		err := json.Unmarshal([]byte(`-1`), &q)
		assert.ErrorIs(t, err, ErrNegativeQuantity)
	})
}

func TestQuantity_ValueScan(t *testing.T) {
	v, err := MustQuantity("3.1").Value()
	require.NoError(t, err)
	assert.Equal(t, "3.100", v)

	var q Quantity
	require.NoError(t, q.Scan("4.250"))
	assert.Equal(t, "4.250", q.String())

	require.NoError(t, q.Scan(nil))
	assert.True(t, q.IsZero())
}
