package odds

import (
	"reflect"
	"testing"
)

func TestTranslateOdds(t *testing.T) {
	p := TranslateOdds(MatchOdds{MatchID: "m1", HomeWin: 1.20, Draw: 2.00, AwayWin: 10.00})
	want := MatchPoints{HomeWin: 1, Draw: 3, AwayWin: 7}
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}
}

func TestTranslateOddsInvalidFallsBack(t *testing.T) {
	p := TranslateOdds(MatchOdds{MatchID: "m1", HomeWin: 0, Draw: -2, AwayWin: 5.00})
	if p.HomeWin != 1 || p.Draw != 1 {
		t.Fatalf("invalid odds should fall back to 1 point, got %+v", p)
	}
	if p.AwayWin != 5 {
		t.Fatalf("valid odds 5.00 should give 5 points, got %d", p.AwayWin)
	}
}

func TestOptionsWithPoints(t *testing.T) {
	opts := OptionsWithPoints("Rosenborg", "Molde", MatchPoints{HomeWin: 2, Draw: 3, AwayWin: 4})
	want := []string{"Rosenborg (2p)", "Uavgjort (3p)", "Molde (4p)"}
	if !reflect.DeepEqual(opts, want) {
		t.Fatalf("got %v, want %v", opts, want)
	}
}

func TestPointsArrayOrderMatchesOptions(t *testing.T) {
	got := PointsArray(MatchPoints{HomeWin: 2, Draw: 3, AwayWin: 4})
	if !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Fatalf("got %v", got)
	}
}
