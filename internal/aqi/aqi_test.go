package aqi

import (
	"math"
	"testing"
)

func TestCategorizeBoundariesResolveToLowerBand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value float64
		want  Category
	}{
		{0, Good},
		{50, Good},
		{51, Moderate},
		{100, Moderate},
		{101, Sensitive},
		{150, Sensitive},
		{151, Unhealthy},
		{200, Unhealthy},
		{201, VeryUnhealthy},
		{300, VeryUnhealthy},
		{301, Hazardous},
		{999, Hazardous},
	}
	for _, tc := range cases {
		if got := Categorize(tc.value); got != tc.want {
			t.Fatalf("Categorize(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestCategorizeIsMonotonicNonDecreasing(t *testing.T) {
	t.Parallel()

	previous := Severity(Categorize(0))
	for value := 1.0; value <= 400; value++ {
		current := Severity(Categorize(value))
		if current < previous {
			t.Fatalf("severity regressed at %v: %d -> %d", value, previous, current)
		}
		previous = current
	}
}

func TestCategorizeNaNIsUnknown(t *testing.T) {
	t.Parallel()

	if got := Categorize(math.NaN()); got != Unknown {
		t.Fatalf("Categorize(NaN) = %q, want Unknown", got)
	}
}

func TestColorFallsBackForUnrecognizedLabels(t *testing.T) {
	t.Parallel()

	if Color("Good") == fallbackColor {
		t.Fatalf("known category must not use the fallback color")
	}
	if Color("Apocalyptic") != fallbackColor {
		t.Fatalf("unknown category label must map to the neutral fallback")
	}
}
