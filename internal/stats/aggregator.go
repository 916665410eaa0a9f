// Package stats holds the latest aggregate snapshot and derives the
// readouts shown to the operator.
package stats

import (
	"fmt"
	"math"

	"github.com/park285/arena-console/internal/protocol"
)

const (
	minScore = 0.001
	maxScore = 0.999
)

// Aggregator overwrites its totals on every snapshot; it never merges.
type Aggregator struct {
	cur protocol.Stats
}

func New() *Aggregator { return &Aggregator{} }

func (a *Aggregator) Apply(s protocol.Stats) { a.cur = s }

// Begin starts a fresh run of total games. Counters are zeroed and the
// engine names are kept until the next snapshot replaces them.
func (a *Aggregator) Begin(total int) {
	a.cur = protocol.Stats{
		TotalGames:  total,
		Engine1Name: a.cur.Engine1Name,
		Engine2Name: a.cur.Engine2Name,
	}
}

func (a *Aggregator) Current() protocol.Stats { return a.cur }

// Progress is completed/total, zero when no total is known. An overcount
// from the backend is reported as is.
func (a *Aggregator) Progress() float64 {
	return Progress(a.cur)
}

func (a *Aggregator) Estimate() (int, bool) {
	return Estimate(a.cur.Engine1Wins, a.cur.Engine2Wins, a.cur.Draws)
}

// Readout is the derived view of one snapshot.
type Readout struct {
	Stats       protocol.Stats
	Progress    float64
	Percent     int
	Estimate    int
	HasEstimate bool
	// EstimateText is signed, e.g. "+35", or empty without games.
	EstimateText string
	Points1      float64
	Points2      float64
	Score1Pct    float64
	Score2Pct    float64
}

func (a *Aggregator) Readout() Readout {
	s := a.cur
	r := Readout{Stats: s, Progress: Progress(s)}
	r.Percent = int(math.Round(r.Progress * 100))
	r.Estimate, r.HasEstimate = Estimate(s.Engine1Wins, s.Engine2Wins, s.Draws)
	if r.HasEstimate {
		r.EstimateText = FormatEstimate(r.Estimate)
	}
	r.Points1 = float64(s.Engine1Wins) + 0.5*float64(s.Draws)
	r.Points2 = float64(s.Engine2Wins) + 0.5*float64(s.Draws)
	if games := s.Engine1Wins + s.Engine2Wins + s.Draws; games > 0 {
		r.Score1Pct = 100 * r.Points1 / float64(games)
		r.Score2Pct = 100 * r.Points2 / float64(games)
	}
	return r
}

func Progress(s protocol.Stats) float64 {
	if s.TotalGames <= 0 {
		return 0
	}
	return float64(s.Completed) / float64(max(s.TotalGames, 1))
}

// Estimate is the logistic rating difference of side A over side B implied
// by the score so far, rounded to a whole number. ok is false without games.
func Estimate(winsA, winsB, draws int) (diff int, ok bool) {
	games := winsA + winsB + draws
	if games <= 0 {
		return 0, false
	}
	score := (float64(winsA) + 0.5*float64(draws)) / float64(games)
	score = math.Min(math.Max(score, minScore), maxScore)
	d := -400 * math.Log10(1/score-1)
	return int(math.Round(d)), true
}

func FormatEstimate(diff int) string {
	return fmt.Sprintf("%+d", diff)
}
