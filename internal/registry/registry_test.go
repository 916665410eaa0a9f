package registry

import (
	"testing"
	"time"

	"github.com/park285/arena-console/internal/protocol"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestAddIsIdempotentAndLastWins(t *testing.T) {
	r := New()
	r.Add(protocol.GameInfo{ID: "g1", White: "LC0", Black: "Stockfish", ECO: "C50"}, t0)
	r.Add(protocol.GameInfo{ID: "g1", White: "Komodo", Black: "Ethereal", ECO: "B90"}, t0)

	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	m, ok := r.Get("g1")
	if !ok {
		t.Fatalf("g1 missing")
	}
	if m.White != "Komodo" || m.Black != "Ethereal" || m.ECO != "B90" {
		t.Fatalf("second add did not win: %+v", m)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	r := New()
	r.Add(protocol.GameInfo{ID: "1", FEN: "start"}, t0)

	if r.UpdateMove("99", "other", 3, "e2e4", "e4", t0) {
		t.Fatalf("UpdateMove on unknown id reported success")
	}
	r.Remove("99")
	if r.Count() != 1 {
		t.Fatalf("count = %d", r.Count())
	}
	if m, _ := r.Get("1"); m.FEN != "start" {
		t.Fatalf("known match changed: %+v", m)
	}
}

func TestUpdateMoveTouchesPositionOnly(t *testing.T) {
	r := New()
	r.Add(protocol.GameInfo{ID: "7", White: "A", Black: "B", FEN: "f0", Opening: "Sicilian"}, t0)
	later := t0.Add(time.Second)
	if !r.UpdateMove("7", "f1", 1, "e2e4", "e4", later) {
		t.Fatalf("UpdateMove failed")
	}
	m, _ := r.Get("7")
	if m.FEN != "f1" || m.MoveCount != 1 || m.LastSAN != "e4" || !m.Updated.Equal(later) {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.White != "A" || m.Opening != "Sicilian" {
		t.Fatalf("attributes changed by move: %+v", m)
	}
}

func TestListOrdersNumericIDs(t *testing.T) {
	r := New()
	for _, id := range []protocol.MatchID{"10", "2", "1"} {
		r.Add(protocol.GameInfo{ID: id}, t0)
	}
	got := r.List()
	if len(got) != 3 || got[0].ID != "1" || got[1].ID != "2" || got[2].ID != "10" {
		t.Fatalf("order = %v", []protocol.MatchID{got[0].ID, got[1].ID, got[2].ID})
	}
	got[0].FEN = "mutated"
	if m, _ := r.Get("1"); m.FEN == "mutated" {
		t.Fatalf("List leaked internal state")
	}
}

func TestLineTracksMovesFromStart(t *testing.T) {
	r := New()
	r.Add(protocol.GameInfo{ID: "1", FEN: "startpos"}, t0)
	r.Add(protocol.GameInfo{ID: "2", FEN: "8/8/8/8/8/8/8/8 w - - 0 1"}, t0)
	for i, mv := range []string{"e2e4", "e7e5"} {
		r.UpdateMove("1", "f", i+1, mv, "", t0)
		r.UpdateMove("2", "f", i+1, mv, "", t0)
	}
	m, _ := r.Get("1")
	if len(m.Line) != 2 || m.Line[1] != "e7e5" {
		t.Fatalf("line = %v", m.Line)
	}
	m.Line[0] = "mutated"
	if again, _ := r.Get("1"); again.Line[0] != "e2e4" {
		t.Fatalf("Get leaked the line")
	}
	if m, _ := r.Get("2"); m.Line != nil {
		t.Fatalf("non-start game should not be traced: %v", m.Line)
	}

	// a skipped ply breaks the trace for good
	r.UpdateMove("1", "f", 4, "g1f3", "", t0)
	r.UpdateMove("1", "f", 5, "b8c6", "", t0)
	if m, _ := r.Get("1"); m.Line != nil {
		t.Fatalf("line should be dropped after a gap: %v", m.Line)
	}
}

func TestSetOpening(t *testing.T) {
	r := New()
	r.Add(protocol.GameInfo{ID: "1"}, t0)
	r.SetOpening("1", "C50", "Italian Game")
	r.SetOpening("nope", "A00", "x")
	if m, _ := r.Get("1"); m.ECO != "C50" || m.Opening != "Italian Game" || r.Count() != 1 {
		t.Fatalf("unexpected: %+v", m)
	}
}
