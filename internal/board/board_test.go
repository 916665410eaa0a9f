package board

import (
	"bytes"
	"context"
	"image/png"
	"testing"
)

func TestRenderEmptyBoard(t *testing.T) {
	g := Render("8/8/8/8/8/8/8/8")
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := g[r][c]
			if !cell.Empty() || cell.Glyph != 0 {
				t.Fatalf("cell (%d,%d) not blank: %+v", r, c, cell)
			}
			if int(cell.Shade) != (r+c)%2 {
				t.Fatalf("cell (%d,%d) shade = %d", r, c, cell.Shade)
			}
		}
	}
}

func TestRenderStartingPosition(t *testing.T) {
	g := Render(StartPlacement + " w KQkq - 0 1")
	if got := g.Row(0); got != "♜♞♝♛♚♝♞♜" {
		t.Fatalf("row 0 = %q", got)
	}
	if got := g.Row(1); got != "♟♟♟♟♟♟♟♟" {
		t.Fatalf("row 1 = %q", got)
	}
	if got := g.Row(7); got != "♖♘♗♕♔♗♘♖" {
		t.Fatalf("row 7 = %q", got)
	}
	if got := g.Row(4); got != "        " {
		t.Fatalf("row 4 = %q", got)
	}
	if g.Pieces() != 32 {
		t.Fatalf("pieces = %d", g.Pieces())
	}
}

func TestRenderStartposKeyword(t *testing.T) {
	if Render("startpos") != Render(StartPlacement) {
		t.Fatalf("startpos keyword should render the initial placement")
	}
}

func TestRenderMalformedDegradesToBlanks(t *testing.T) {
	g := Render("xK6/9/8/8")
	if !g[0][0].Empty() {
		t.Fatalf("unknown letter should leave a blank: %+v", g[0][0])
	}
	if g[0][1].Piece != 'K' || g[0][1].Glyph != '♔' {
		t.Fatalf("K not placed after unknown char: %+v", g[0][1])
	}
	for r := 1; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if !g[r][c].Empty() {
				t.Fatalf("cell (%d,%d) should be blank", r, c)
			}
		}
	}
	// a multi-byte rune is one unknown character, one blank square
	g = Render("éKpppppp/8/8/8/8/8/8/8")
	if got := g.Row(0); got != " ♔♟♟♟♟♟♟" {
		t.Fatalf("row 0 = %q", got)
	}
	if Render("").Pieces() != 0 {
		t.Fatalf("empty notation should render blank")
	}
}

func TestRenderPNGDecodes(t *testing.T) {
	raw, err := RenderPNG(context.Background(), Render("startpos"), PNGOptions{SquareSize: 20, Title: "LC0 vs Stockfish", Highlight: true})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 20*Size+sideMargin*2 || b.Dy() != 20*Size+topMargin+bottomMargin {
		t.Fatalf("bounds = %v", b)
	}
}

func TestLastMoveSAN(t *testing.T) {
	san, err := LastMoveSAN("startpos", "g1f3")
	if err != nil {
		t.Fatalf("LastMoveSAN: %v", err)
	}
	if san != "Nf3" {
		t.Fatalf("san = %q, want Nf3", san)
	}
	if _, err := LastMoveSAN("startpos", ""); err == nil {
		t.Fatalf("empty move should fail")
	}
	if SideToMove("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1") != "black" {
		t.Fatalf("side to move should be black")
	}
}

func TestClassifyOpening(t *testing.T) {
	eco, name, ok, err := ClassifyOpening([]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4"})
	if err != nil || !ok {
		t.Fatalf("ClassifyOpening: ok=%v err=%v", ok, err)
	}
	if len(eco) != 3 || eco[0] != 'C' || name == "" {
		t.Fatalf("eco=%q name=%q", eco, name)
	}
	if _, _, _, err := ClassifyOpening([]string{"e2e5"}); err == nil {
		t.Fatalf("illegal move should fail")
	}
	if _, _, ok, _ := ClassifyOpening(nil); ok {
		t.Fatalf("empty line has no opening")
	}
}

func TestIsStartPosition(t *testing.T) {
	for _, fen := range []string{"", "startpos", StartPlacement + " w KQkq - 0 1"} {
		if !IsStartPosition(fen) {
			t.Fatalf("IsStartPosition(%q) = false", fen)
		}
	}
	if IsStartPosition("8/8/8/8/8/8/8/8 w - - 0 1") {
		t.Fatalf("empty board is not the start")
	}
}
