// Package registry keeps the set of matches currently being played.
package registry

import (
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/park285/arena-console/internal/board"
	"github.com/park285/arena-console/internal/protocol"
)

type Match struct {
	ID        protocol.MatchID
	White     string
	Black     string
	FEN       string
	MoveCount int
	ECO       string
	Opening   string
	// LastMove is the last move in UCI as sent by the backend; LastSAN is
	// filled in by the caller when it can be derived.
	LastMove string
	LastSAN  string
	// Line holds every UCI move since the initial position, or nil once the
	// game can no longer be traced from it.
	Line    []string
	Updated time.Time

	traced bool
}

// Registry is keyed by match id. It is not safe for concurrent use; the
// session loop is its only owner.
type Registry struct {
	matches map[protocol.MatchID]*Match
}

func New() *Registry {
	return &Registry{matches: make(map[protocol.MatchID]*Match)}
}

// Add inserts or replaces the match with g's id.
func (r *Registry) Add(g protocol.GameInfo, now time.Time) {
	r.matches[g.ID] = &Match{
		ID:        g.ID,
		White:     g.White,
		Black:     g.Black,
		FEN:       g.FEN,
		MoveCount: g.MoveCount,
		ECO:       g.ECO,
		Opening:   g.Opening,
		Updated:   now,
		traced:    g.MoveCount == 0 && board.IsStartPosition(g.FEN),
	}
}

// UpdateMove changes position and move count only. Unknown ids are ignored;
// the return value reports whether a match was updated.
func (r *Registry) UpdateMove(id protocol.MatchID, fen string, moveCount int, uci, san string, now time.Time) bool {
	m, ok := r.matches[id]
	if !ok {
		return false
	}
	if m.traced {
		if uci != "" && moveCount == len(m.Line)+1 {
			m.Line = append(m.Line, uci)
		} else {
			m.traced, m.Line = false, nil
		}
	}
	m.FEN = fen
	m.MoveCount = moveCount
	m.LastMove = uci
	m.LastSAN = san
	m.Updated = now
	return true
}

// SetOpening fills in the classification of a known match.
func (r *Registry) SetOpening(id protocol.MatchID, eco, name string) {
	if m, ok := r.matches[id]; ok {
		m.ECO, m.Opening = eco, name
	}
}

func (r *Registry) Remove(id protocol.MatchID) {
	delete(r.matches, id)
}

func (r *Registry) Clear() {
	clear(r.matches)
}

func (r *Registry) Count() int { return len(r.matches) }

// Get returns a copy of the match.
func (r *Registry) Get(id protocol.MatchID) (Match, bool) {
	m, ok := r.matches[id]
	if !ok {
		return Match{}, false
	}
	return m.copy(), true
}

// List returns copies ordered by id, numerically when both ids are numbers.
func (r *Registry) List() []Match {
	out := make([]Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m.copy())
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

func (m *Match) copy() Match {
	out := *m
	out.Line = slices.Clone(m.Line)
	return out
}

func lessID(a, b protocol.MatchID) bool {
	na, errA := strconv.Atoi(string(a))
	nb, errB := strconv.Atoi(string(b))
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
