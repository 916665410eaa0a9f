package stats

import (
	"testing"

	"github.com/park285/arena-console/internal/protocol"
)

func TestEstimateZeroWhenEven(t *testing.T) {
	for _, tc := range []struct{ wins, draws int }{{0, 5}, {3, 0}, {7, 11}} {
		d, ok := Estimate(tc.wins, tc.wins, tc.draws)
		if !ok || d != 0 {
			t.Fatalf("Estimate(%d,%d,%d) = %d,%v want 0,true", tc.wins, tc.wins, tc.draws, d, ok)
		}
	}
}

func TestEstimateNoGames(t *testing.T) {
	if _, ok := Estimate(0, 0, 0); ok {
		t.Fatalf("estimate without games should be absent")
	}
}

func TestEstimateMonotonicInWinsA(t *testing.T) {
	prev, _ := Estimate(0, 4, 3)
	for w := 1; w <= 40; w++ {
		d, ok := Estimate(w, 4, 3)
		if !ok {
			t.Fatalf("missing estimate")
		}
		if d < prev {
			t.Fatalf("estimate decreased at winsA=%d: %d < %d", w, d, prev)
		}
		prev = d
	}
}

func TestEstimateClampsExtremes(t *testing.T) {
	d, _ := Estimate(10, 0, 0)
	// 0.999 clamp gives 400*log10(999) ~ 1200
	if d != 1200 {
		t.Fatalf("all wins = %d, want 1200", d)
	}
	d, _ = Estimate(0, 10, 0)
	if d != -1200 {
		t.Fatalf("all losses = %d, want -1200", d)
	}
}

func TestEstimateKnownValue(t *testing.T) {
	// score 0.75 -> -400*log10(1/3) = 190.85
	d, _ := Estimate(3, 1, 0)
	if d != 191 {
		t.Fatalf("Estimate(3,1,0) = %d, want 191", d)
	}
	if FormatEstimate(d) != "+191" || FormatEstimate(-5) != "-5" || FormatEstimate(0) != "+0" {
		t.Fatalf("unexpected formatting")
	}
}

func TestProgress(t *testing.T) {
	if Progress(protocol.Stats{}) != 0 {
		t.Fatalf("no total should be zero progress")
	}
	if p := Progress(protocol.Stats{TotalGames: 4, Completed: 1}); p != 0.25 {
		t.Fatalf("progress = %v", p)
	}
	if p := Progress(protocol.Stats{TotalGames: 2, Completed: 5}); p != 2.5 {
		t.Fatalf("overcount should pass through, got %v", p)
	}
}

func TestApplyOverwritesAndBeginKeepsNames(t *testing.T) {
	a := New()
	a.Apply(protocol.Stats{TotalGames: 10, Completed: 4, Engine1Name: "LC0", Engine2Name: "SF", Engine1Wins: 2, Draws: 2})
	a.Apply(protocol.Stats{TotalGames: 10, Completed: 5, Engine1Wins: 1})
	if cur := a.Current(); cur.Draws != 0 || cur.Engine1Name != "" || cur.Completed != 5 {
		t.Fatalf("Apply merged instead of overwriting: %+v", cur)
	}

	a.Apply(protocol.Stats{Engine1Name: "LC0", Engine2Name: "SF", Completed: 9, Engine1Wins: 9})
	a.Begin(20)
	cur := a.Current()
	if cur.TotalGames != 20 || cur.Completed != 0 || cur.Engine1Wins != 0 || cur.Engine1Name != "LC0" || cur.Engine2Name != "SF" {
		t.Fatalf("unexpected after Begin: %+v", cur)
	}
}

func TestReadout(t *testing.T) {
	a := New()
	a.Apply(protocol.Stats{TotalGames: 8, Completed: 4, Engine1Wins: 2, Engine2Wins: 1, Draws: 1})
	r := a.Readout()
	if r.Percent != 50 || !r.HasEstimate || r.EstimateText == "" {
		t.Fatalf("unexpected readout: %+v", r)
	}
	if r.Points1 != 2.5 || r.Points2 != 1.5 || r.Score1Pct != 62.5 {
		t.Fatalf("unexpected points: %+v", r)
	}
}
