package optional_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warpedintentions/srp/internal/optional"
)

func TestOptional(t *testing.T) {
	t.Run("can create new optional with value", func(t *testing.T) {
		x := optional.New(55)
		assert.Equal(t, 55, x.ValueOrZero())
		assert.False(t, x.IsEmpty())
	})
	t.Run("can create an empty optional", func(t *testing.T) {
		x := optional.Optional[int]{}
		assert.True(t, x.IsEmpty())
	})
	t.Run("can update an empty optional", func(t *testing.T) {
		x := optional.Optional[int]{}
		x.Set(45)
		assert.Equal(t, 45, x.ValueOrZero())
	})
	t.Run("can clear a value", func(t *testing.T) {
		x := optional.New(12)
		x.Clear()
		assert.True(t, x.IsEmpty())
		assert.Equal(t, 0, x.ValueOrZero())
	})
	t.Run("can print a value", func(t *testing.T) {
		assert.Equal(t, "12", fmt.Sprint(optional.New(12)))
	})
	t.Run("can print an empty optional", func(t *testing.T) {
		assert.Equal(t, "<empty>", fmt.Sprint(optional.Optional[int]{}))
	})
	t.Run("should return fallback when empty", func(t *testing.T) {
		assert.Equal(t, 4, optional.Optional[int]{}.ValueOrFallback(4))
		assert.Equal(t, 12, optional.New(12).ValueOrFallback(4))
	})
	t.Run("should return error when empty", func(t *testing.T) {
		_, err := optional.Optional[int]{}.Value()
		assert.ErrorIs(t, err, optional.ErrIsEmpty)
	})
}

func TestNullTypes(t *testing.T) {
	t.Run("can convert from null float", func(t *testing.T) {
		assert.Equal(t, optional.New(1.5), optional.FromNullFloat64(sql.NullFloat64{Float64: 1.5, Valid: true}))
		assert.True(t, optional.FromNullFloat64(sql.NullFloat64{}).IsEmpty())
	})
	t.Run("can convert to null float", func(t *testing.T) {
		assert.Equal(t, sql.NullFloat64{Float64: 1.5, Valid: true}, optional.ToNullFloat64(optional.New(1.5)))
		assert.Equal(t, sql.NullFloat64{}, optional.ToNullFloat64(optional.Optional[float64]{}))
	})
}
