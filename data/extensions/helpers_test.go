package extensions

import (
	"math"
	"strings"
	"testing"
	"time"
)

func Test_FilterSingle_ErrorsOnZeroOrMany(t *testing.T) {
	keys := []string{"1. Information", "2. Symbol", "3. Last Refreshed", "2. Symbol Alias"}

	s, err := FilterSingle(keys, func(k string) bool { return strings.HasSuffix(k, ". Symbol") })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AssertAreEqual(t, "symbol key", "2. Symbol", s)

	if _, err := FilterSingle(keys, func(k string) bool { return strings.Contains(k, "Symbol") }); err == nil {
		t.Fatalf("expected an error for two matches")
	}

	if _, err := FilterSingle(keys, func(k string) bool { return k == "" }); err == nil {
		t.Fatalf("expected an error for zero matches")
	}
}

func Test_Round(t *testing.T) {
	AssertAreEqual(t, "4dp", 0.6667, Round(2.0/3.0, 4))
	AssertAreEqual(t, "3dp", -1.235, Round(-1.2346, 3))
	AssertAreEqual(t, "0dp", 3.0, Round(2.5, 0))
}

func Test_IsFinite(t *testing.T) {
	AssertAreEqual(t, "finite", true, IsFinite(1.5))
	AssertAreEqual(t, "nan", false, IsFinite(math.NaN()))
	AssertAreEqual(t, "+inf", false, IsFinite(math.Inf(1)))
	AssertAreEqual(t, "-inf", false, IsFinite(math.Inf(-1)))
}

func Test_FmtShort(t *testing.T) {
	d := time.Date(2024, time.March, 5, 13, 30, 0, 0, time.UTC)
	AssertAreEqual(t, "short", "2024-03-05", FmtShort(d))
}

func Test_MaxMapAreEqual(t *testing.T) {
	AssertAreEqual(t, "max", 7, Max(2, 7))
	AssertAreEqual(t, "max float", 2.5, Max(2.5, -1))
	AssertAreEqual(t, "case insensitive", true, AreEqual("json", "JSON"))
	AssertAreEqual(t, "map", "A,B", strings.Join(Map([]string{"a", "b"}, strings.ToUpper), ","))
}
