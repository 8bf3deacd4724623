// Package humanize transforms values into more user friendly representations.
package humanize

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/constraints"

	"github.com/warpedintentions/srp/internal/optional"
)

// NumberF returns a humanized float number, e.g. 1234 becomes 1.23 K
func NumberF[T constraints.Float](value T, decimals int) string {
	return number(float64(value), decimals)
}

func number(value float64, decimals int) string {
	var s int
	var a string
	v2 := math.Abs(value)
	switch {
	case v2 >= 1_000_000_000_000:
		s = 12
		a = " T"
	case v2 >= 1_000_000_000:
		s = 9
		a = " B"
	case v2 >= 1_000_000:
		s = 6
		a = " M"
	case v2 >= 1_000:
		s = 3
		a = " K"
	}
	if decimals < 0 || decimals > 3 {
		panic(fmt.Sprintf("Undefined decimals: %d", decimals))
	}
	return fmt.Sprintf("%.*f%s", decimals, value/math.Pow10(s), a)
}

// ISK returns an amount of ISK in short form, e.g. "1.23 B ISK".
// Returns the fallback when the amount is not known.
func ISK(o optional.Optional[float64], fallback string) string {
	if o.IsEmpty() {
		return fallback
	}
	return NumberF(o.ValueOrZero(), 2) + " ISK"
}

// ISKFull returns an amount of ISK with all digits, e.g. "1,234,567 ISK".
func ISKFull(o optional.Optional[float64], fallback string) string {
	if o.IsEmpty() {
		return fallback
	}
	return humanize.Comma(int64(math.Round(o.ValueOrZero()))) + " ISK"
}

// Comma produces a string form of the given number in base 10
// with commas after every three orders of magnitude.
// This variation works with any integer like type.
func Comma[T constraints.Integer](x T) string {
	return humanize.Comma(int64(x))
}

// TimeWithFallback returns a given time as relative string.
// Or returns the fallback when time is zero.
func TimeWithFallback(v time.Time, fallback string) string {
	if v.IsZero() {
		return fallback
	}
	return humanize.Time(v)
}
