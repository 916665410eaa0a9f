package board

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// LastMoveSAN converts a UCI move played from prevFEN into SAN. The backend
// only sends UCI; SAN is for display.
func LastMoveSAN(prevFEN, uci string) (string, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	if uci == "" {
		return "", fmt.Errorf("empty move")
	}
	pos, err := position(prevFEN)
	if err != nil {
		return "", err
	}
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return "", fmt.Errorf("decode uci %q: %w", uci, err)
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv), nil
}

// SideToMove returns "white" or "black", or "" when fen is not a full FEN.
func SideToMove(fen string) string {
	pos, err := position(fen)
	if err != nil {
		return ""
	}
	if pos.Turn() == nchess.White {
		return "white"
	}
	return "black"
}

func position(fen string) (*nchess.Position, error) {
	fen = strings.TrimSpace(fen)
	if strings.EqualFold(fen, startposKeyword) {
		return nchess.NewGame().Position(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return nchess.NewGame(opt).Position(), nil
}
