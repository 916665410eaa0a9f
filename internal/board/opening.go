package board

import (
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Line replays past this many plies are not classified; named openings end
// well before it.
const maxOpeningPly = 40

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// IsStartPosition reports whether position is empty, the startpos keyword, or
// a FEN whose placement is the initial one.
func IsStartPosition(position string) bool {
	fields := strings.Fields(position)
	if len(fields) == 0 {
		return true
	}
	return strings.EqualFold(fields[0], startposKeyword) || fields[0] == StartPlacement
}

// ClassifyOpening names the opening reached by line, UCI moves from the
// initial position. ok is false when no named opening matches.
func ClassifyOpening(line []string) (eco, name string, ok bool, err error) {
	if len(line) == 0 || len(line) > maxOpeningPly {
		return "", "", false, nil
	}
	game := nchess.NewGame()
	for i, mv := range line {
		if err := game.PushNotationMove(strings.ToLower(mv), nchess.UCINotation{}, nil); err != nil {
			return "", "", false, fmt.Errorf("replay ply %d %q: %w", i+1, mv, err)
		}
	}
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	o := ecoBook.Find(game.Moves())
	if o == nil {
		return "", "", false, nil
	}
	return o.Code(), o.Title(), true, nil
}
