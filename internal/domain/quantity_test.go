package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

func TestNewQuantity(t *testing.T) {
	tests := []struct {
		name    string
		value   int64
		wantErr bool
	}{
		{name: "zero", value: 0, wantErr: false},
		{name: "positive", value: 42, wantErr: false},
		{name: "negative", value: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuantity(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.CodeNegativeQuantity))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, q.Int64())
		})
	}
}

func TestQuantityAdd(t *testing.T) {
	a := Quantity(10)
	b := Quantity(5)

	assert.Equal(t, Quantity(15), a.Add(b))
	assert.Equal(t, a, a.Add(ZeroQuantity))
}

func TestQuantitySubtract(t *testing.T) {
	tests := []struct {
		name       string
		value      Quantity
		subtrahend Quantity
		want       Quantity
		wantErr    bool
	}{
		{name: "smaller subtrahend", value: 10, subtrahend: 4, want: 6},
		{name: "equal subtrahend", value: 10, subtrahend: 10, want: 0},
		{name: "subtrahend exceeds value", value: 3, subtrahend: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.Subtract(tt.subtrahend)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.CodeNegativeQuantity))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantityComparisons(t *testing.T) {
	assert.True(t, Quantity(3).LessThan(Quantity(5)))
	assert.False(t, Quantity(5).LessThan(Quantity(5)))
	assert.True(t, Quantity(5).LessThanOrEqual(Quantity(5)))
	assert.True(t, Quantity(5).GreaterThanOrEqual(Quantity(5)))
	assert.False(t, Quantity(4).GreaterThanOrEqual(Quantity(5)))
	assert.True(t, ZeroQuantity.IsZero())
	assert.False(t, Quantity(1).IsZero())
}
