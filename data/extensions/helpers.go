package extensions

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Number is any integer or float type
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// FilterMultiple return all elements that satisfy the predicate
func FilterMultiple[T any](elements []T, predicate func(T) bool) (results []T) {
	for _, element := range elements {
		if predicate(element) {
			results = append(results, element)
		}
	}
	return
}

// FilterSingle return the single element that satisfies the predicate.
// If zero or more than one, default T and an error is returned.
func FilterSingle[T any](elements []T, predicate func(T) bool) (T, error) {
	res := FilterMultiple(elements, predicate)

	if len(res) != 1 {
		var zero T
		return zero, fmt.Errorf("error getting single, found %d matches", len(res))
	}

	return res[0], nil
}

// Map applies f to every element
func Map[T, R any](elements []T, f func(T) R) []R {
	res := make([]R, len(elements))
	for i, e := range elements {
		res[i] = f(e)
	}
	return res
}

// AreEqual is a simple case invariant string comparason
func AreEqual(s, c string) bool {
	return strings.EqualFold(s, c)
}

// FmtShort formats a time in a date only string
func FmtShort(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Round rounds half away from zero to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// IsFinite is false for NaN and both infinities
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func Max[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}
