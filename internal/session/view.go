package session

import (
	"time"

	"github.com/park285/arena-console/internal/board"
	"github.com/park285/arena-console/internal/control"
	"github.com/park285/arena-console/internal/history"
	"github.com/park285/arena-console/internal/stats"
)

// View is an immutable snapshot of everything a renderer needs. Slices are
// never shared with the Core that produced it.
type View struct {
	SessionID  string                `json:"session_id"`
	Seq        uint64                `json:"seq"`
	Link       string                `json:"link"`
	RunState   control.RunState      `json:"run_state"`
	Buttons    []control.ButtonState `json:"buttons"`
	Stats      stats.Readout         `json:"stats"`
	Matches    []MatchView           `json:"matches"`
	History    []history.Point       `json:"history"`
	HistoryLen int                   `json:"history_len"`
	Notices    []Notice              `json:"notices"`
	Report     string                `json:"report,omitempty"`
	LastGame   *GameResult           `json:"last_game,omitempty"`
}

type MatchView struct {
	ID        string     `json:"id"`
	White     string     `json:"white"`
	Black     string     `json:"black"`
	FEN       string     `json:"fen"`
	MoveCount int        `json:"move_count"`
	ECO       string     `json:"eco,omitempty"`
	Opening   string     `json:"opening,omitempty"`
	LastMove  string     `json:"last_move,omitempty"`
	LastSAN   string     `json:"last_san,omitempty"`
	ToMove    string     `json:"to_move,omitempty"`
	Updated   bool       `json:"updated"`
	Board     board.Grid `json:"-"`
}

// Notice is a visible, non-blocking message from the backend.
type Notice struct {
	ID      int       `json:"id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type GameResult struct {
	ID          string `json:"id"`
	White       string `json:"white,omitempty"`
	Black       string `json:"black,omitempty"`
	Result      string `json:"result,omitempty"`
	Winner      string `json:"winner,omitempty"`
	Termination string `json:"termination,omitempty"`
	Moves       int    `json:"moves"`
}

// Match returns the match view with id.
func (v View) Match(id string) (MatchView, bool) {
	for _, m := range v.Matches {
		if m.ID == id {
			return m, true
		}
	}
	return MatchView{}, false
}

func (v View) Button(b control.Button) control.ButtonState {
	for _, s := range v.Buttons {
		if s.Button == b {
			return s
		}
	}
	return control.ButtonState{Button: b}
}
