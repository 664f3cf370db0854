package scoring

import (
	"math"
	"testing"

	"kupong-service/internal/domain"
)

func TestOddsToPointsKnownValues(t *testing.T) {
	cases := []struct {
		odds float64
		want int
	}{
		{1.20, 1},
		{2.00, 3},
		{5.00, 5},
		{10.00, 7},
	}
	for _, tc := range cases {
		got, err := OddsToPoints(tc.odds)
		if err != nil {
			t.Fatalf("odds %.2f: unexpected error %v", tc.odds, err)
		}
		if got != tc.want {
			t.Fatalf("odds %.2f: expected %d points, got %d", tc.odds, tc.want, got)
		}
	}
}

func TestOddsToPointsMonotonic(t *testing.T) {
	prev := 0
	for odds := 1.01; odds < 100; odds *= 1.5 {
		got, err := OddsToPoints(odds)
		if err != nil {
			t.Fatalf("odds %.2f: %v", odds, err)
		}
		if got < prev {
			t.Fatalf("odds %.2f: points dropped from %d to %d", odds, prev, got)
		}
		prev = got
	}
}

func TestOddsToPointsCeilBoundary(t *testing.T) {
	// raw = 1 + 3*ln(odds) crosses 10.5 near odds = e^(9.5/3) ≈ 23.8. The
	// bound is inclusive: raw at or below 10.5 floors, anything past it ceils.
	for _, odds := range []float64{23.0, 23.8, 24.0, 25.0, 50.0} {
		raw := 1 + 3*math.Log(odds)
		want := int(math.Ceil(raw))
		if raw <= 10.5 {
			want = int(math.Floor(raw))
		}
		got, err := OddsToPoints(odds)
		if err != nil {
			t.Fatalf("odds %.2f: %v", odds, err)
		}
		if got != want {
			t.Fatalf("odds %.2f (raw %.4f): expected %d, got %d", odds, raw, want, got)
		}
	}

	// Below the bound a fractional raw truncates instead of rounding up:
	// odds 10.0 gives raw ≈ 7.9 and 7 points, not 8.
	got, err := OddsToPoints(10.0)
	if err != nil {
		t.Fatalf("odds 10.0: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected raw below bound to floor to 7, got %d", got)
	}
}

func TestOddsToPointsInvalidInput(t *testing.T) {
	for _, odds := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if _, err := OddsToPoints(odds); err != domain.ErrInvalidOdds {
			t.Fatalf("odds %v: expected ErrInvalidOdds, got %v", odds, err)
		}
	}
}

func TestFormatPointsLabel(t *testing.T) {
	if got := FormatPointsLabel(5); got != "5p" {
		t.Fatalf("expected 5p, got %q", got)
	}
	// Formatting is stable across repeated calls with the same input.
	points, err := OddsToPoints(3.4)
	if err != nil {
		t.Fatalf("odds: %v", err)
	}
	first := FormatPointsLabel(points)
	if second := FormatPointsLabel(points); second != first {
		t.Fatalf("label not stable: %q then %q", first, second)
	}
}
