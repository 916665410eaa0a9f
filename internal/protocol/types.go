package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MatchID is the server-assigned match identity. The backend sends it either
// as a JSON number or a string; both decode to the same textual form.
type MatchID string

func (id *MatchID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MatchID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = MatchID(n.String())
	return nil
}

func (id MatchID) String() string { return string(id) }

// Stats is the aggregate snapshot pushed by the backend.
type Stats struct {
	TotalGames   int     `json:"total_games"`
	Completed    int     `json:"completed"`
	Engine1Name  string  `json:"engine1_name"`
	Engine2Name  string  `json:"engine2_name"`
	Engine1Wins  int     `json:"engine1_wins"`
	Engine2Wins  int     `json:"engine2_wins"`
	Draws        int     `json:"draws"`
	Engine1Score float64 `json:"engine1_score"`
	Engine2Score float64 `json:"engine2_score"`
}

// matchRef accepts both "game_id" and "id" for the match identity.
type matchRef struct {
	GameID MatchID `json:"game_id"`
	ID     MatchID `json:"id"`
}

func (r matchRef) resolve() MatchID {
	if r.GameID != "" {
		return r.GameID
	}
	return r.ID
}

// GameInfo describes one running match as carried by game_start and by the
// active_games list of a state snapshot.
type GameInfo struct {
	ID        MatchID
	White     string
	Black     string
	FEN       string
	ECO       string
	Opening   string
	Moves     []string
	MoveCount int
}

func (g *GameInfo) UnmarshalJSON(b []byte) error {
	var raw struct {
		matchRef
		White     string   `json:"white"`
		Black     string   `json:"black"`
		FEN       string   `json:"fen"`
		ECO       string   `json:"eco"`
		Opening   string   `json:"opening"`
		Moves     []string `json:"moves"`
		MoveCount *int     `json:"move_count"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*g = GameInfo{
		ID:      raw.resolve(),
		White:   raw.White,
		Black:   raw.Black,
		FEN:     raw.FEN,
		ECO:     raw.ECO,
		Opening: raw.Opening,
		Moves:   raw.Moves,
	}
	if raw.MoveCount != nil {
		g.MoveCount = *raw.MoveCount
	} else {
		g.MoveCount = len(raw.Moves)
	}
	return nil
}

// StartConfig is the operator Configuration sent with the start command and
// echoed back by the started event.
type StartConfig struct {
	NumGames        int     `json:"num_games"`
	ConcurrentGames int     `json:"concurrent_games"`
	TimeControl     float64 `json:"time_control"`
	Increment       float64 `json:"increment"`
	UseOpenings     *bool   `json:"use_openings,omitempty"`
}
